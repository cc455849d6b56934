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
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterState/counterSource is a minimal test Source emitting an
// incrementing counter, for tests that only need a Source.
type counterState struct{ n int }

type counterSource struct {
	id   NodeId
	out  *Ports
	in   *Ports
	port PortId
}

func newCounterSource(id NodeId, port PortId) *counterSource {
	outs := NewPorts()
	_ = outs.Add(port, "int")
	return &counterSource{id: id, out: outs, in: NewPorts(), port: port}
}

func (s *counterSource) Id() NodeId      { return s.id }
func (s *counterSource) Inputs() *Ports  { return s.in }
func (s *counterSource) Outputs() *Ports { return s.out }

func (s *counterSource) Initialize(map[string]string) (*counterState, error) {
	return &counterState{}, nil
}

func (s *counterSource) Clean(*counterState) error { return nil }

func (s *counterSource) Run(ctx context.Context, state *counterState) (Message, error) {
	state.n++
	return NewDataMessage([]byte(strconv.Itoa(state.n)), time.Now()), nil
}

func TestSourceRunnerPublishesToOutputs(t *testing.T) {
	src := newCounterSource("counter", "count")
	runner, err := NewSourceRunner[*counterState](src, nil)
	require.NoError(t, err)
	assert.Equal(t, RunnerSource, runner.Kind())
	assert.Equal(t, NodeId("counter"), runner.Id())

	tx, rx := NewLink("count", 1)
	require.NoError(t, runner.AddOutput("count", tx))

	require.NoError(t, runner.Run(context.Background()))

	msg, err := rx.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", string(msg.Payload))
	assert.Equal(t, 1, runner.State().n)

	assert.NoError(t, runner.Clean())
}

func TestSourceRunnerAddOutputUnknownPort(t *testing.T) {
	src := newCounterSource("counter", "count")
	runner, err := NewSourceRunner[*counterState](src, nil)
	require.NoError(t, err)

	tx, _ := NewLink("bogus", 1)
	assert.ErrorIs(t, runner.AddOutput("bogus", tx), ErrNodeNotFound)
}

// doublerOperator doubles an integer payload.
type doublerState struct {
	DefaultInputRuleFunc[*doublerState]
}

type doublerOperator struct {
	id  NodeId
	in  *Ports
	out *Ports
	ip  PortId
	op  PortId
}

func newDoublerOperator(id NodeId, inPort, outPort PortId) *doublerOperator {
	ins := NewPorts()
	_ = ins.Add(inPort, "int")
	outs := NewPorts()
	_ = outs.Add(outPort, "int")
	return &doublerOperator{id: id, in: ins, out: outs, ip: inPort, op: outPort}
}

func (d *doublerOperator) Id() NodeId      { return d.id }
func (d *doublerOperator) Inputs() *Ports  { return d.in }
func (d *doublerOperator) Outputs() *Ports { return d.out }

func (d *doublerOperator) Initialize(map[string]string) (*doublerState, error) {
	return &doublerState{}, nil
}

func (d *doublerOperator) Clean(*doublerState) error { return nil }

func (d *doublerOperator) InputRule(state *doublerState, tokens Tokens) (bool, error) {
	return state.InputRule(state, tokens)
}

func (d *doublerOperator) Run(ctx context.Context, state *doublerState, inputs map[PortId]Message) (map[PortId]Message, error) {
	n, _ := strconv.Atoi(string(inputs[d.ip].Payload))
	return map[PortId]Message{d.op: NewDataMessage([]byte(strconv.Itoa(n*2)), time.Now())}, nil
}

func TestOperatorRunnerRunEndToEnd(t *testing.T) {
	op := newDoublerOperator("double", "in", "doubled")
	runner, err := NewOperatorRunner[*doublerState](op, nil)
	require.NoError(t, err)
	assert.Equal(t, RunnerOperator, runner.Kind())

	itx, irx := NewLink("in", 1)
	require.NoError(t, runner.AddInput("in", irx))
	otx, orx := NewLink("doubled", 1)
	require.NoError(t, runner.AddOutput("doubled", otx))

	require.NoError(t, itx.Send(context.Background(), NewDataMessage([]byte("21"), time.Now())))
	require.NoError(t, runner.Run(context.Background()))

	msg, err := orx.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "42", string(msg.Payload))
}

// collectSinkState/collectSink is a minimal Sink test double.
type collectSinkState struct {
	DefaultInputRuleFunc[*collectSinkState]
	received []Message
}

type collectSink struct {
	id NodeId
	in *Ports
	ip PortId
}

func newCollectSink(id NodeId, inPort PortId) *collectSink {
	ins := NewPorts()
	_ = ins.Add(inPort, "int")
	return &collectSink{id: id, in: ins, ip: inPort}
}

func (c *collectSink) Id() NodeId      { return c.id }
func (c *collectSink) Inputs() *Ports  { return c.in }
func (c *collectSink) Outputs() *Ports { return NewPorts() }

func (c *collectSink) Initialize(map[string]string) (*collectSinkState, error) {
	return &collectSinkState{}, nil
}

func (c *collectSink) Clean(*collectSinkState) error { return nil }

func (c *collectSink) InputRule(state *collectSinkState, tokens Tokens) (bool, error) {
	return state.InputRule(state, tokens)
}

func (c *collectSink) Run(ctx context.Context, state *collectSinkState, inputs map[PortId]Message) error {
	state.received = append(state.received, inputs[c.ip])
	return nil
}

func TestSinkRunnerRunEndToEnd(t *testing.T) {
	sink := newCollectSink("collect", "in")
	runner, err := NewSinkRunner[*collectSinkState](sink, nil)
	require.NoError(t, err)
	assert.Equal(t, RunnerSink, runner.Kind())

	tx, rx := NewLink("in", 1)
	require.NoError(t, runner.AddInput("in", rx))

	msg := NewDataMessage([]byte("x"), time.Now())
	require.NoError(t, tx.Send(context.Background(), msg))
	require.NoError(t, runner.Run(context.Background()))

	assert.Equal(t, []Message{msg}, runner.State().received)
}
