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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTokensAllEmpty(t *testing.T) {
	tokens := NewTokens([]PortId{"a", "b"})
	assert.Len(t, tokens.EmptyPorts(), 2)
	assert.False(t, tokens.AllReady())
}

func TestTokensSetReadyAndConsume(t *testing.T) {
	tokens := NewTokens([]PortId{"a", "b"})
	now := time.Now()
	msgA := NewDataMessage([]byte("1"), now)
	msgB := NewDataMessage([]byte("2"), now)

	tokens.SetReady("a", msgA)
	assert.False(t, tokens.AllReady())
	assert.Equal(t, []PortId{"b"}, tokens.EmptyPorts())

	tokens.SetReady("b", msgB)
	assert.True(t, tokens.AllReady())
	assert.Empty(t, tokens.EmptyPorts())

	out := tokens.Consume()
	assert.Equal(t, msgA, out["a"])
	assert.Equal(t, msgB, out["b"])

	assert.Len(t, tokens.EmptyPorts(), 2, "consumed tokens reset to empty")
}

func TestDefaultInputRule(t *testing.T) {
	tokens := NewTokens([]PortId{"a"})
	fire, err := DefaultInputRule(tokens)
	assert.NoError(t, err)
	assert.False(t, fire)

	tokens.SetReady("a", Message{})
	fire, err = DefaultInputRule(tokens)
	assert.NoError(t, err)
	assert.True(t, fire)
}
