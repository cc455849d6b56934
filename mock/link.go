package mock

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

	"github.com/brunotm/zflow"
)

// make sure we implement the needed interfaces
var _ zflow.Receiver = (*Receiver)(nil)
var _ zflow.Sender = (*Sender)(nil)

// Receiver is a canned zflow.Receiver for driving a node's Run method in
// isolation from the real link/runner machinery, adapted from the
// teacher's mock.Context counter-based double (mock/context.go) to this
// runtime's pull-based Receiver capability.
type Receiver struct {
	port    zflow.PortId
	mu      sync.Mutex
	queue   []zflow.Message
	closed  bool
	RecvCnt int
}

// NewReceiver returns a Receiver for port that yields msgs in order,
// then ErrLinkClosed once exhausted.
func NewReceiver(port zflow.PortId, msgs ...zflow.Message) *Receiver {
	return &Receiver{port: port, queue: append([]zflow.Message(nil), msgs...)}
}

func (r *Receiver) PortId() zflow.PortId { return r.port }

// Recv returns the next queued message, respecting ctx cancellation.
func (r *Receiver) Recv(ctx context.Context) (zflow.Message, error) {
	select {
	case <-ctx.Done():
		return zflow.Message{}, ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.RecvCnt++

	if r.closed || len(r.queue) == 0 {
		return zflow.Message{}, zflow.ErrLinkClosed
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *Receiver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

// Push appends additional messages for a later Recv call, for tests
// that feed a node incrementally.
func (r *Receiver) Push(msgs ...zflow.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = append(r.queue, msgs...)
}

// Sender is a zflow.Sender that records every Message it receives,
// for asserting what a node under test published.
type Sender struct {
	port     zflow.PortId
	mu       sync.Mutex
	Sent     []zflow.Message
	SendErr  error
	ClosedAt int
}

// NewSender returns an empty recording Sender for port.
func NewSender(port zflow.PortId) *Sender {
	return &Sender{port: port}
}

func (s *Sender) PortId() zflow.PortId { return s.port }

func (s *Sender) Send(_ context.Context, msg zflow.Message) error {
	if s.SendErr != nil {
		return s.SendErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sent = append(s.Sent, msg)
	return nil
}

func (s *Sender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ClosedAt = len(s.Sent)
}
