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

// TokenState is the lifecycle of a per-input-port slot: empty -> ready(msg)
// -> consumed (spec.md §3).
type TokenState uint8

const (
	// TokenEmpty means no message is pending on this port.
	TokenEmpty TokenState = iota
	// TokenReady means a message is pending firing.
	TokenReady
	// TokenConsumed means the message was handed to the body on the last
	// firing; the token is reset to Empty before the next round.
	TokenConsumed
	// TokenClosed means this port's Receiver errored (its link was torn
	// down) and is permanently dropped from future await rounds
	// (spec.md §4.3 step 5). A Closed token never becomes Ready again.
	TokenClosed
)

// Token is a per-input-port slot holding at most one pending message
// awaiting firing.
type Token struct {
	State TokenState
	Msg   Message
}

// Tokens is the per-node input-rule state: one Token per input PortId.
type Tokens map[PortId]*Token

// NewTokens initializes an Empty token for every port in ids.
func NewTokens(ids []PortId) Tokens {
	t := make(Tokens, len(ids))
	for _, id := range ids {
		t[id] = &Token{State: TokenEmpty}
	}
	return t
}

// SetReady stores msg in the given port's token and marks it Ready.
func (t Tokens) SetReady(port PortId, msg Message) {
	tok, ok := t[port]
	if !ok {
		tok = &Token{}
		t[port] = tok
	}
	tok.State = TokenReady
	tok.Msg = msg
}

// AllReady reports whether every token in t is Ready.
func (t Tokens) AllReady() bool {
	for _, tok := range t {
		if tok.State != TokenReady {
			return false
		}
	}
	return true
}

// EmptyPorts returns the ports whose token is currently Empty — the set
// the input-rule engine must keep awaiting (spec.md §4.3 step 2/4).
// Closed ports are never included: once a port's Receiver has errored it
// is permanently dropped from the await set.
func (t Tokens) EmptyPorts() []PortId {
	var ports []PortId
	for id, tok := range t {
		if tok.State == TokenEmpty {
			ports = append(ports, id)
		}
	}
	return ports
}

// SetClosed permanently drops port from future await rounds after its
// Receiver has errored (spec.md §4.3 step 5: "drop that port from the
// await set for this round").
func (t Tokens) SetClosed(port PortId) {
	tok, ok := t[port]
	if !ok {
		tok = &Token{}
		t[port] = tok
	}
	tok.State = TokenClosed
	tok.Msg = Message{}
}

// AllClosed reports whether every input port has been permanently
// dropped, meaning the node can never fire again. The engine treats this
// as the "no ports remain" case from spec.md §4.3 step 5 and yields to
// let the runner's supervisor decide whether to restart.
func (t Tokens) AllClosed() bool {
	for _, tok := range t {
		if tok.State != TokenClosed {
			return false
		}
	}
	return true
}

// Consume drains every Ready token into a fresh input map for the body,
// and resets consumed slots back to Empty for the next round (spec.md
// §4.3 step 6, §8 "Firing atomicity").
func (t Tokens) Consume() map[PortId]Message {
	out := make(map[PortId]Message, len(t))
	for id, tok := range t {
		if tok.State == TokenReady {
			out[id] = tok.Msg
			tok.State = TokenEmpty
			tok.Msg = Message{}
		}
	}
	return out
}

// DefaultInputRule returns true iff every token is Ready, leaving them
// Ready for the engine to Consume (spec.md §4.2).
func DefaultInputRule(tokens Tokens) (bool, error) {
	return tokens.AllReady(), nil
}
