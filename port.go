package zflow

/*
   Copyright 2018 Bruno Moura <brunotm@gmail.com>

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// PortDescriptor is a (PortId, PortType) pair declared by a node on one
// of its sides (spec.md §3).
type PortDescriptor struct {
	Id   PortId
	Type PortType
}

// Ports is an insertion-ordered PortId->PortType mapping, matching
// spec.md §3 ("a node declares an insertion-ordered mapping from PortId
// to PortType"). Port ids are unique within each side of a node.
type Ports struct {
	order []PortId
	types map[PortId]PortType
}

// NewPorts builds an empty Ports set.
func NewPorts() *Ports {
	return &Ports{types: make(map[PortId]PortType)}
}

// Add declares a port, returning ErrDuplicatePort if id was already
// declared on this side.
func (p *Ports) Add(id PortId, typ PortType) error {
	if _, exists := p.types[id]; exists {
		return ErrDuplicatePort
	}
	p.order = append(p.order, id)
	p.types[id] = typ
	return nil
}

// Type returns the PortType declared for id, and whether it was found.
func (p *Ports) Type(id PortId) (PortType, bool) {
	t, ok := p.types[id]
	return t, ok
}

// Ids returns the declared PortIds in declaration order.
func (p *Ports) Ids() []PortId {
	out := make([]PortId, len(p.order))
	copy(out, p.order)
	return out
}

// Descriptors returns the full (PortId, PortType) list in declaration
// order.
func (p *Ports) Descriptors() []PortDescriptor {
	out := make([]PortDescriptor, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, PortDescriptor{Id: id, Type: p.types[id]})
	}
	return out
}

// Len returns the number of declared ports.
func (p *Ports) Len() int { return len(p.order) }

// CheckLinkTypes verifies the invariant from spec.md §3 that a link's two
// endpoints declare matching PortTypes.
func CheckLinkTypes(outType, inType PortType) error {
	if outType != inType {
		return ErrPortTypeMismatch
	}
	return nil
}
