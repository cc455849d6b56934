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

func TestConfigIsSet(t *testing.T) {
	c := NewConfig(nil)
	c.Set("a value", "a.nested.value")
	assert.True(t, c.IsSet("a.nested"), "a.nested")
	assert.True(t, c.IsSet("a.nested.value"), "a.nested.value")
	assert.False(t, c.IsSet("a.nested.missing"), "a.nested.missing")
}

func TestConfigSetGet(t *testing.T) {
	c := NewConfig(nil)

	c.Set("hello", "a.nested.value")
	assert.Equal(t, "hello", c.Get("a.nested.value").String("default"))

	c.Set(true, "a.nested.flag")
	assert.Equal(t, true, c.Get("a.nested.flag").Bool(false))

	c.Set(5, "a.nested.count")
	assert.Equal(t, 5, c.Get("a.nested.count").Int(0))
	assert.Equal(t, int64(5), c.Get("a.nested.count").Int64(0))

	c.Set("10ms", "a.nested.period")
	assert.Equal(t, 10*time.Millisecond, c.Get("a.nested.period").Duration(time.Microsecond))
}

func TestConfigGetDefaults(t *testing.T) {
	c := NewConfig(nil)

	assert.Equal(t, "default", c.Get("missing").String("default"))
	assert.Equal(t, true, c.Get("missing").Bool(true))
	assert.Equal(t, 10, c.Get("missing").Int(10))
	assert.Equal(t, int64(10), c.Get("missing").Int64(10))
	assert.Equal(t, time.Microsecond, c.Get("missing").Duration(time.Microsecond))
}

func TestConfigArrayIndex(t *testing.T) {
	c := NewConfig(map[string]interface{}{
		"nodes": []interface{}{
			map[string]interface{}{"period": "5ms"},
			map[string]interface{}{"period": "10ms"},
		},
	})

	assert.Equal(t, 5*time.Millisecond, c.Get("nodes.0.period").Duration(0))
	assert.Equal(t, 10*time.Millisecond, c.Get("nodes.1.period").Duration(0))
	assert.False(t, c.IsSet("nodes.2.period"))
}

func TestConfigMap(t *testing.T) {
	c := NewConfig(map[string]interface{}{
		"a": "1",
		"b": "2",
	})

	m := c.Map()
	assert.Len(t, m, 2)
	assert.Equal(t, "1", m["a"].String(""))
	assert.Equal(t, "2", m["b"].String(""))
}

func TestConfigToStringMap(t *testing.T) {
	c := NewConfig(map[string]interface{}{
		"period": "5ms",
		"count":  3,
	})

	m := c.ToStringMap()
	assert.Equal(t, "5ms", m["period"])
	assert.Equal(t, "3", m["count"])

	leaf := c.Get("period")
	assert.Nil(t, leaf.ToStringMap(), "non-object config has no string map")
}
