package replay

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
	"errors"
	"time"

	"github.com/brunotm/zflow"
	"github.com/brunotm/zflow/recorder"
)

// ErrExhausted is returned by Run once every spooled entry has been
// replayed; the owning RunnerManager's supervised restart loop then
// keeps re-invoking Run, which returns ErrExhausted again forever —
// the same "idle, never produces again" terminal state a live Source
// reaching end-of-input would leave its runner in.
var ErrExhausted = errors.New("replay: store exhausted")

var errStopIteration = errors.New("replay: stop iteration")

// State is a replay Source's per-instance cursor into a recorder.Store.
type State struct {
	store recorder.Store
	next  uint64
	pace  time.Duration
}

// Source replays a previously recorded Store's entries, in spool order,
// as Data messages on a single output port — supplementing spec.md per
// SPEC_FULL.md §13, grounded on the original runtime's replay runner
// (named, not retrieved in full, in
// runtime/dataflow/instance/runners/mod.rs's module list).
type Source struct {
	id         zflow.NodeId
	outputPort zflow.PortId
	outputs    *zflow.Ports
	store      recorder.Store
}

// NewSource builds a replay Source for id, publishing on outputPort of
// the given type, reading entries back from store.
func NewSource(id zflow.NodeId, outputPort zflow.PortId, portType zflow.PortType, store recorder.Store) (*Source, error) {
	outputs := zflow.NewPorts()
	if err := outputs.Add(outputPort, portType); err != nil {
		return nil, err
	}
	return &Source{id: id, outputPort: outputPort, outputs: outputs, store: store}, nil
}

func (s *Source) Id() zflow.NodeId      { return s.id }
func (s *Source) Inputs() *zflow.Ports  { return zflow.NewPorts() }
func (s *Source) Outputs() *zflow.Ports { return s.outputs }

// Initialize builds the replay cursor. config["pace"] sets the delay
// between successive replayed messages (parsed with time.ParseDuration,
// default 0 — replay as fast as possible).
func (s *Source) Initialize(config map[string]string) (*State, error) {
	pace, _ := time.ParseDuration(config["pace"])
	return &State{store: s.store, next: 0, pace: pace}, nil
}

func (s *Source) Clean(_ *State) error { return nil }

// Run advances the cursor by one spooled entry and returns it as a Data
// message, or ErrExhausted once the store has no further entries.
func (s *Source) Run(ctx context.Context, state *State) (zflow.Message, error) {
	if state.pace > 0 {
		select {
		case <-time.After(state.pace):
		case <-ctx.Done():
			return zflow.Message{}, ctx.Err()
		}
	}

	var out zflow.Message
	found := false
	err := state.store.Range(state.next, 0, func(seq uint64, payload []byte, ts time.Time) error {
		out = zflow.NewDataMessage(payload, ts)
		state.next = seq + 1
		found = true
		return errStopIteration
	})
	if err != nil && err != errStopIteration {
		return zflow.Message{}, err
	}
	if !found {
		return zflow.Message{}, ErrExhausted
	}
	return out, nil
}
