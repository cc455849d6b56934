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

import "context"

// Descriptor is the business-logic surface every plugin-provided node
// kind shares, parameterized over its own concrete State type S (spec.md
// §9 Design Notes: generics replace the runtime's MissingState/downcast
// error class entirely — a Runner[S] wraps a Descriptor[S] and never
// needs to recover S from an interface{}).
type Descriptor[S any] interface {
	// Id returns this node's identity within its flow.
	Id() NodeId
	// Inputs declares the node's input side (empty for a Source).
	Inputs() *Ports
	// Outputs declares the node's output side (empty for a Sink).
	Outputs() *Ports
	// Initialize builds this node's State from its flattened
	// configuration (spec.md §6). Called once before the first Run.
	Initialize(config map[string]string) (S, error)
	// Clean releases resources held by state. Called once after the
	// runner's last Run, on both normal stop and on Kill.
	Clean(state S) error
}

// InputRuler is implemented by Operator and Sink nodes to decide when
// their accumulated Tokens should fire (spec.md §4.2/§4.3). Nodes that
// only need "all ports ready" can embed DefaultInputRuleFunc[S] instead
// of writing their own.
type InputRuler[S any] interface {
	// InputRule inspects tokens and reports whether the node should
	// fire now. Implementations must not mutate tokens; Consume() is
	// called by the engine only after InputRule returns true.
	InputRule(state S, tokens Tokens) (fire bool, err error)
}

// Source produces data with no inputs, driven purely by its own logic
// or external I/O (spec.md §4.1).
type Source[S any] interface {
	Descriptor[S]
	// Run produces one output value for one iteration of the runner's
	// drive loop. The runner forwards the returned message on every
	// wired output link.
	Run(ctx context.Context, state S) (Message, error)
}

// SourceFunc adapts a plain function to Source for the common case of a
// node with no extra business-logic methods beyond Run.
type SourceFunc[S any] func(ctx context.Context, state S) (Message, error)

// Operator consumes from one or more inputs and produces on one or more
// outputs, firing according to its InputRule (spec.md §4.1/§4.2).
type Operator[S any] interface {
	Descriptor[S]
	InputRuler[S]
	// Run is invoked once a firing's Tokens have been Consumed; inputs
	// holds exactly the messages on the ports the input rule deemed
	// ready. Run returns the messages to publish, keyed by output
	// PortId.
	Run(ctx context.Context, state S, inputs map[PortId]Message) (map[PortId]Message, error)
}

// Sink consumes from one or more inputs and produces no outputs
// (spec.md §4.1).
type Sink[S any] interface {
	Descriptor[S]
	InputRuler[S]
	// Run is invoked once a firing's Tokens have been Consumed.
	Run(ctx context.Context, state S, inputs map[PortId]Message) error
}

// Connector is a Source or a Sink bound to an external transport rather
// than to the flow graph, used to stitch instances of a flow split
// across runtime boundaries (spec.md §13, modeled on the original
// runtime's sender/receiver connectors). Direction fixes which half of
// Source/Sink it behaves as.
type Connector[S any] interface {
	Descriptor[S]
	// Direction reports whether this connector behaves as a receiving
	// Source (ConnectorReceive) or a sending Sink (ConnectorSend).
	Direction() ConnectorDirection
}

// DefaultInputRuleFunc implements InputRuler[S] by requiring every input
// port to be Ready, matching spec.md §4.2's default. Embed it in an
// Operator/Sink's State-bearing type, or use it directly when no
// per-node InputRule override is needed.
type DefaultInputRuleFunc[S any] struct{}

// InputRule reports tokens.AllReady(), ignoring state.
func (DefaultInputRuleFunc[S]) InputRule(_ S, tokens Tokens) (bool, error) {
	return DefaultInputRule(tokens)
}
