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

import (
	"context"
	"sync"
)

// DefaultLinkCapacity is the bounded capacity a Link uses when none is
// specified, per spec.md §4.1 ("default: small, e.g. 16").
const DefaultLinkCapacity = 16

// Sender is the push-side capability of a Link. Send suspends once the
// receiver's buffer is full and fails only if the receiver was destroyed.
type Sender interface {
	// PortId is the output port this sender publishes on.
	PortId() PortId
	// Send pushes msg, suspending (respecting ctx) while the buffer is
	// full. Returns ErrLinkClosed if the receiver has been destroyed.
	Send(ctx context.Context, msg Message) error
	// Close marks this sender as done; after Close, any Receiver reading
	// this link eventually observes io completion once every Sender on
	// the underlying channel has closed.
	Close()
}

// Receiver is the pull-side capability of a Link. Recv suspends until a
// message is available and fails only if all senders were destroyed.
type Receiver interface {
	// PortId is the input port this receiver feeds, so a node awaiting
	// many inputs learns which port fired (spec.md §4.1).
	PortId() PortId
	// Recv blocks (respecting ctx) until a message arrives. Returns
	// ErrLinkClosed once the link is drained and every sender is closed.
	Recv(ctx context.Context) (Message, error)
	// Close destroys the receiver; subsequent Sends fail with
	// ErrLinkClosed.
	Close()
}

// link is the shared state behind one Sender/Receiver pair. A Link is a
// single-producer edge; fan-out from one output port to many input ports
// is expressed at the node level as a list of (link, Sender) pairs
// sharing the same published Message (spec.md §4.1).
type link struct {
	portId PortId
	ch     chan Message

	mu           sync.Mutex
	senderClosed bool
	closeSender  sync.Once

	recvClosed chan struct{}
	closeRecv  sync.Once
}

// NewLink creates a bounded Link for the given input PortId, returning
// its Sender and Receiver capabilities. capacity<=0 uses
// DefaultLinkCapacity.
func NewLink(portId PortId, capacity int) (Sender, Receiver) {
	if capacity <= 0 {
		capacity = DefaultLinkCapacity
	}
	l := &link{
		portId:     portId,
		ch:         make(chan Message, capacity),
		recvClosed: make(chan struct{}),
	}
	return &linkSender{l: l}, &linkReceiver{l: l}
}

type linkSender struct {
	l *link
}

func (s *linkSender) PortId() PortId { return s.l.portId }

func (s *linkSender) Send(ctx context.Context, msg Message) error {
	l := s.l

	l.mu.Lock()
	closed := l.senderClosed
	l.mu.Unlock()
	if closed {
		return ErrLinkClosed
	}

	select {
	case <-l.recvClosed:
		return ErrLinkClosed
	default:
	}

	select {
	case l.ch <- msg:
		return nil
	case <-l.recvClosed:
		return ErrLinkClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *linkSender) Close() {
	s.l.closeSender.Do(func() {
		s.l.mu.Lock()
		s.l.senderClosed = true
		s.l.mu.Unlock()
		close(s.l.ch)
	})
}

type linkReceiver struct {
	l *link
}

func (r *linkReceiver) PortId() PortId { return r.l.portId }

func (r *linkReceiver) Recv(ctx context.Context) (Message, error) {
	select {
	case msg, ok := <-r.l.ch:
		if !ok {
			return Message{}, ErrLinkClosed
		}
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (r *linkReceiver) Close() {
	r.l.closeRecv.Do(func() {
		close(r.l.recvClosed)
	})
}

// OutputFanout holds the ordered list of Senders publishing one output
// port's messages, guarded by a mutex since wiring (add_output) and
// publication may race with external control paths (spec.md §5
// "Locking").
type OutputFanout struct {
	mu      sync.Mutex
	portId  PortId
	senders []Sender
}

// NewOutputFanout creates an empty fan-out list for the given output port.
func NewOutputFanout(portId PortId) *OutputFanout {
	return &OutputFanout{portId: portId}
}

// PortId returns the output port this fan-out publishes on.
func (f *OutputFanout) PortId() PortId { return f.portId }

// Add appends a Sender to the fan-out list (add_output wiring).
func (f *OutputFanout) Add(s Sender) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.senders = append(f.senders, s)
}

// Senders returns a snapshot of the current sender list (introspection,
// output_links()).
func (f *OutputFanout) Senders() []Sender {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Sender, len(f.senders))
	copy(out, f.senders)
	return out
}

// Publish walks the sender list and sends msg to each, in order. Per
// spec.md §4.1, delivery order among receivers of one port is otherwise
// implementation-defined, but each receiver sees the same total order
// this call produces them in. The first send error aborts the walk and
// is returned; callers that need all-or-nothing fan-out semantics should
// treat any error as the publish failing.
func (f *OutputFanout) Publish(ctx context.Context, msg Message) error {
	for _, s := range f.Senders() {
		if err := s.Send(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sender in the fan-out list.
func (f *OutputFanout) Close() {
	for _, s := range f.Senders() {
		s.Close()
	}
}
