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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunotm/zflow"
	"github.com/brunotm/zflow/recorder"
)

// memStore is a minimal in-memory recorder.Store test double, standing
// in for store_moss.go/store_leveldb.go without pulling in either
// on-disk engine.
type memStore struct {
	entries    [][]byte
	timestamps []time.Time
}

func (m *memStore) Name() string { return "mem" }

func (m *memStore) Append(payload []byte, ts time.Time) (uint64, error) {
	m.entries = append(m.entries, payload)
	m.timestamps = append(m.timestamps, ts)
	return uint64(len(m.entries)), nil
}

func (m *memStore) Range(from, to uint64, cb func(seq uint64, payload []byte, ts time.Time) error) error {
	for i := range m.entries {
		seq := uint64(i + 1)
		if seq < from || (to > 0 && seq >= to) {
			continue
		}
		if err := cb(seq, m.entries[i], m.timestamps[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStore) Close() error { return nil }

var _ recorder.Store = (*memStore)(nil)

func TestReplaySourceRunReplaysInOrder(t *testing.T) {
	store := &memStore{}
	first := time.Now().Add(-time.Minute)
	second := time.Now()
	_, _ = store.Append([]byte("first"), first)
	_, _ = store.Append([]byte("second"), second)

	src, err := NewSource("replay", "out", "bytes", store)
	require.NoError(t, err)

	state, err := src.Initialize(map[string]string{})
	require.NoError(t, err)

	msg, err := src.Run(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, "first", string(msg.Payload))
	assert.True(t, first.Equal(msg.Timestamp), "replayed message keeps its original timestamp")

	msg, err = src.Run(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, "second", string(msg.Payload))
	assert.True(t, second.Equal(msg.Timestamp), "replayed message keeps its original timestamp")
}

func TestReplaySourceRunExhausted(t *testing.T) {
	store := &memStore{}
	_, _ = store.Append([]byte("only"), time.Now())

	src, err := NewSource("replay", "out", "bytes", store)
	require.NoError(t, err)
	state, err := src.Initialize(map[string]string{})
	require.NoError(t, err)

	_, err = src.Run(context.Background(), state)
	require.NoError(t, err)

	_, err = src.Run(context.Background(), state)
	assert.ErrorIs(t, err, ErrExhausted)

	_, err = src.Run(context.Background(), state)
	assert.ErrorIs(t, err, ErrExhausted, "stays exhausted on further calls")
}

func TestReplaySourceInitializeParsesPace(t *testing.T) {
	src, err := NewSource("replay", "out", "bytes", &memStore{})
	require.NoError(t, err)

	state, err := src.Initialize(map[string]string{"pace": "5ms"})
	require.NoError(t, err)
	assert.Equal(t, "replay", string(src.Id()))
	assert.NotNil(t, state)
	assert.Equal(t, 5*time.Millisecond, state.pace)
}

func TestReplaySourcePortsDeclaration(t *testing.T) {
	src, err := NewSource("replay", "out", zflow.PortType("bytes"), &memStore{})
	require.NoError(t, err)

	typ, ok := src.Outputs().Type("out")
	assert.True(t, ok)
	assert.Equal(t, zflow.PortType("bytes"), typ)
	assert.Equal(t, 0, src.Inputs().Len())
}
