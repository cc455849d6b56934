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

// Runner is the kind-erased wiring and lifecycle surface a RunnerManager
// drives, wrapping one plugin-provided node (spec.md §5 "Runner"). It is
// implemented by SourceRunner[S], OperatorRunner[S], SinkRunner[S] and
// ConnectorRunner[S]; the generic parameter never escapes these wrapper
// types, so a *RunnerManager holding a Runner never needs to recover it.
type Runner interface {
	// Run executes one full drive pass: for a Source this produces one
	// message and forwards it; for an Operator/Sink this runs the
	// input-rule engine to a single firing and invokes the body. Run
	// returns when the pass completes, errors, or ctx is canceled.
	Run(ctx context.Context) error
	// AddInput wires r as the receiver for the named input port.
	AddInput(port PortId, r Receiver) error
	// AddOutput wires s as an additional sender for the named output
	// port (fan-out).
	AddOutput(port PortId, s Sender) error
	// Clean releases the wrapped node's State. Called once by the
	// owning RunnerManager after the last Run.
	Clean() error

	Kind() RunnerKind
	Id() NodeId
	Inputs() *Ports
	Outputs() *Ports

	// InputLinks returns the currently wired input Receivers, keyed by
	// port.
	InputLinks() map[PortId]Receiver
	// OutputLinks returns the currently wired output fan-outs, keyed by
	// port.
	OutputLinks() map[PortId]*OutputFanout
}

// baseRunner holds the wiring state shared by every concrete Runner
// kind: link tables guarded by a mutex, since wiring (AddInput/
// AddOutput) can race with the control plane while Run is in flight
// (spec.md §5 "Locking").
type baseRunner struct {
	mu      sync.Mutex
	id      NodeId
	inputs  *Ports
	outputs *Ports

	receivers map[PortId]Receiver
	fanouts   map[PortId]*OutputFanout
}

func newBaseRunner(id NodeId, inputs, outputs *Ports) baseRunner {
	b := baseRunner{id: id, inputs: inputs, outputs: outputs}
	b.receivers = make(map[PortId]Receiver, inputs.Len())
	b.fanouts = make(map[PortId]*OutputFanout, outputs.Len())
	for _, p := range outputs.Ids() {
		b.fanouts[p] = NewOutputFanout(p)
	}
	return b
}

func (b *baseRunner) Id() NodeId      { return b.id }
func (b *baseRunner) Inputs() *Ports  { return b.inputs }
func (b *baseRunner) Outputs() *Ports { return b.outputs }

func (b *baseRunner) AddInput(port PortId, r Receiver) error {
	if _, ok := b.inputs.Type(port); !ok {
		return ErrNodeNotFound
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.receivers[port] = r
	return nil
}

func (b *baseRunner) AddOutput(port PortId, s Sender) error {
	if _, ok := b.outputs.Type(port); !ok {
		return ErrNodeNotFound
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	fo, ok := b.fanouts[port]
	if !ok {
		fo = NewOutputFanout(port)
		b.fanouts[port] = fo
	}
	fo.Add(s)
	return nil
}

func (b *baseRunner) InputLinks() map[PortId]Receiver {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[PortId]Receiver, len(b.receivers))
	for k, v := range b.receivers {
		out[k] = v
	}
	return out
}

func (b *baseRunner) OutputLinks() map[PortId]*OutputFanout {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[PortId]*OutputFanout, len(b.fanouts))
	for k, v := range b.fanouts {
		out[k] = v
	}
	return out
}

func (b *baseRunner) fanout(port PortId) *OutputFanout {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fanouts[port]
}

// SourceRunner wraps a Source[S], producing one Message per Run and
// forwarding it to every wired output link.
type SourceRunner[S any] struct {
	baseRunner
	node  Source[S]
	state S
}

// NewSourceRunner builds a Runner for node, already initialized with
// config (spec.md §6: initialize happens once, before the first Run).
func NewSourceRunner[S any](node Source[S], config map[string]string) (*SourceRunner[S], error) {
	state, err := node.Initialize(config)
	if err != nil {
		return nil, err
	}
	return &SourceRunner[S]{
		baseRunner: newBaseRunner(node.Id(), node.Inputs(), node.Outputs()),
		node:       node,
		state:      state,
	}, nil
}

func (r *SourceRunner[S]) Kind() RunnerKind { return RunnerSource }

func (r *SourceRunner[S]) Run(ctx context.Context) error {
	msg, err := r.node.Run(ctx, r.state)
	if err != nil {
		return err
	}
	for _, port := range r.Outputs().Ids() {
		if fo := r.fanout(port); fo != nil {
			if err := fo.Publish(ctx, msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *SourceRunner[S]) Clean() error { return r.node.Clean(r.state) }

// State returns the wrapped node's current State, for tests and
// introspection that need to look past the kind-erased Runner
// interface.
func (r *SourceRunner[S]) State() S { return r.state }

// OperatorRunner wraps an Operator[S], driving the input-rule engine to
// one firing per Run, invoking the body, and publishing its results.
type OperatorRunner[S any] struct {
	baseRunner
	node   Operator[S]
	state  S
	tokens Tokens
}

// NewOperatorRunner builds a Runner for node, already initialized with
// config.
func NewOperatorRunner[S any](node Operator[S], config map[string]string) (*OperatorRunner[S], error) {
	state, err := node.Initialize(config)
	if err != nil {
		return nil, err
	}
	return &OperatorRunner[S]{
		baseRunner: newBaseRunner(node.Id(), node.Inputs(), node.Outputs()),
		node:       node,
		state:      state,
		tokens:     NewTokens(node.Inputs().Ids()),
	}, nil
}

func (r *OperatorRunner[S]) Kind() RunnerKind { return RunnerOperator }

func (r *OperatorRunner[S]) Run(ctx context.Context) error {
	inputs, err := runInputRules(ctx, r.state, r.node, r.InputLinks(), r.tokens, nil)
	if err != nil {
		return err
	}

	outputs, err := r.node.Run(ctx, r.state, inputs)
	if err != nil {
		return err
	}

	for port, msg := range outputs {
		if fo := r.fanout(port); fo != nil {
			if err := fo.Publish(ctx, msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *OperatorRunner[S]) Clean() error { return r.node.Clean(r.state) }

// State returns the wrapped node's current State.
func (r *OperatorRunner[S]) State() S { return r.state }

// SinkRunner wraps a Sink[S], driving the input-rule engine to one
// firing per Run and invoking the body. Sinks have no outputs.
type SinkRunner[S any] struct {
	baseRunner
	node   Sink[S]
	state  S
	tokens Tokens
}

// NewSinkRunner builds a Runner for node, already initialized with
// config.
func NewSinkRunner[S any](node Sink[S], config map[string]string) (*SinkRunner[S], error) {
	state, err := node.Initialize(config)
	if err != nil {
		return nil, err
	}
	return &SinkRunner[S]{
		baseRunner: newBaseRunner(node.Id(), node.Inputs(), node.Outputs()),
		node:       node,
		state:      state,
		tokens:     NewTokens(node.Inputs().Ids()),
	}, nil
}

func (r *SinkRunner[S]) Kind() RunnerKind { return RunnerSink }

func (r *SinkRunner[S]) Run(ctx context.Context) error {
	inputs, err := runInputRules(ctx, r.state, r.node, r.InputLinks(), r.tokens, nil)
	if err != nil {
		return err
	}
	return r.node.Run(ctx, r.state, inputs)
}

func (r *SinkRunner[S]) Clean() error { return r.node.Clean(r.state) }

// State returns the wrapped node's current State.
func (r *SinkRunner[S]) State() S { return r.state }

// ConnectorRunner wraps a Connector[S], behaving as a one-output Source
// (ConnectorReceive) or a one-input Sink (ConnectorSend) depending on
// its declared Direction (spec.md §13).
type ConnectorRunner[S any] struct {
	baseRunner
	node   Connector[S]
	state  S
	tokens Tokens
	recv   func(ctx context.Context, state S) (Message, error)
	send   func(ctx context.Context, state S, msg Message) error
}

// NewConnectorRunner builds a Runner for node, already initialized with
// config. recv is invoked for ConnectorReceive direction to obtain the
// next outbound Message; send is invoked for ConnectorSend direction
// once the node's single input port fires.
func NewConnectorRunner[S any](
	node Connector[S],
	config map[string]string,
	recv func(ctx context.Context, state S) (Message, error),
	send func(ctx context.Context, state S, msg Message) error,
) (*ConnectorRunner[S], error) {
	state, err := node.Initialize(config)
	if err != nil {
		return nil, err
	}
	return &ConnectorRunner[S]{
		baseRunner: newBaseRunner(node.Id(), node.Inputs(), node.Outputs()),
		node:       node,
		state:      state,
		tokens:     NewTokens(node.Inputs().Ids()),
		recv:       recv,
		send:       send,
	}, nil
}

func (r *ConnectorRunner[S]) Kind() RunnerKind { return RunnerConnector }

func (r *ConnectorRunner[S]) Run(ctx context.Context) error {
	switch r.node.Direction() {
	case ConnectorReceive:
		msg, err := r.recv(ctx, r.state)
		if err != nil {
			return err
		}
		for _, port := range r.Outputs().Ids() {
			if fo := r.fanout(port); fo != nil {
				if err := fo.Publish(ctx, msg); err != nil {
					return err
				}
			}
		}
		return nil
	case ConnectorSend:
		rule := DefaultInputRuleFunc[S]{}
		inputs, err := runInputRules(ctx, r.state, rule, r.InputLinks(), r.tokens, nil)
		if err != nil {
			return err
		}
		for _, msg := range inputs {
			if err := r.send(ctx, r.state, msg); err != nil {
				return err
			}
		}
		return nil
	default:
		return ErrInvalidNodeKind
	}
}

func (r *ConnectorRunner[S]) Clean() error { return r.node.Clean(r.state) }

// State returns the wrapped node's current State.
func (r *ConnectorRunner[S]) State() S { return r.state }
