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
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Config is a generic runtime-level configuration object. The only item
// the runtime itself reads is a node's replica scale
// ("nodes.<id>.scale", read by control.Server.RegisterScaled); link
// capacity, timeouts and recorder transport settings are not read from
// it. It is safe for concurrent gets but not for sets. This is distinct from the
// map[string]string passed verbatim to a node's initialize(config) call
// (spec.md §6), which the runtime never interprets.
//
// Configuration items are addressed by a path using dot separated names:
//
//	a
//	a.nest.key
//	a.nest.key.array.2        (3rd element of an array)
//	a.nest.key.array.2.key    (nested element of an array entry)
type Config struct {
	data interface{}
}

// NewConfig creates a Config from an existing map[string]interface{}, or
// an empty Config if data is nil.
func NewConfig(data map[string]interface{}) (c Config) {
	if data == nil {
		data = make(map[string]interface{})
	}
	c.data = data
	return c
}

// IsSet returns true if path is set.
func (c Config) IsSet(path ...string) (ok bool) {
	if len(path) == 1 {
		path = strings.Split(path[0], ".")
	}
	return search(c.data, path) != nil
}

// Get retrieves the Config item for the given path.
func (c Config) Get(path ...string) (config Config) {
	if len(path) == 1 {
		path = strings.Split(path[0], ".")
	}
	return Config{search(c.data, path)}
}

// String returns the current item as a string, or def if nil/unparsable.
func (c Config) String(def string) (value string) {
	if c.data == nil {
		return def
	}
	var err error
	if value, err = cast.ToStringE(c.data); err != nil {
		return def
	}
	return value
}

// Bool returns the current item as a bool, or def if nil/unparsable.
func (c Config) Bool(def bool) (value bool) {
	if c.data == nil {
		return def
	}
	var err error
	if value, err = cast.ToBoolE(c.data); err != nil {
		return def
	}
	return value
}

// Duration returns the current item as a time.Duration, or def if
// nil/unparsable.
func (c Config) Duration(def time.Duration) (value time.Duration) {
	if c.data == nil {
		return def
	}
	var err error
	if value, err = cast.ToDurationE(c.data); err != nil {
		return def
	}
	return value
}

// Int returns the current item as an int, or def if nil/unparsable.
func (c Config) Int(def int) (value int) {
	if c.data == nil {
		return def
	}
	var err error
	if value, err = cast.ToIntE(c.data); err != nil {
		return def
	}
	return value
}

// Int64 returns the current item as an int64, or def if nil/unparsable.
func (c Config) Int64(def int64) (value int64) {
	if c.data == nil {
		return def
	}
	var err error
	if value, err = cast.ToInt64E(c.data); err != nil {
		return def
	}
	return value
}

// Map returns the config map for the current item, or nil if it is not
// an object.
func (c Config) Map() (value map[string]Config) {
	if m, ok := c.data.(map[string]interface{}); ok {
		value = make(map[string]Config, len(m))
		for k, v := range m {
			value[k] = Config{v}
		}
	}
	return value
}

// Set sets the value for the given path, creating any needed map.
func (c Config) Set(value interface{}, path ...string) {
	if len(path) == 1 {
		path = strings.Split(path[0], ".")
	}
	set(c.data, value, path)
}

// ToStringMap flattens a leaf object Config into a map[string]string, the
// shape spec.md §6 requires for a node's initialize(config) argument.
// Non-object configs return nil.
func (c Config) ToStringMap() map[string]string {
	m, ok := c.data.(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		s, err := cast.ToStringE(v)
		if err != nil {
			continue
		}
		out[k] = s
	}
	return out
}

func search(source interface{}, path []string) (data interface{}) {
	data = source
	var ok bool

	for _, key := range path {
		switch tmp := data.(type) {
		case map[string]interface{}:
			if data, ok = tmp[key]; !ok {
				return nil
			}
		case []interface{}:
			idx, err := strconv.ParseInt(key, 10, 64)
			if err != nil || int(idx) >= len(tmp) {
				return nil
			}
			data = tmp[idx]
		default:
			return nil
		}
	}

	return data
}

func set(source, value interface{}, path []string) {
	m, ok := source.(map[string]interface{})
	if !ok || m == nil {
		return
	}

	for i := 0; i < len(path); i++ {
		currentKey := path[i]

		if i < len(path)-1 {
			next, ok := m[currentKey].(map[string]interface{})
			if !ok {
				next = make(map[string]interface{})
				m[currentKey] = next
			}
			m = next
			continue
		}

		m[currentKey] = value
	}
}
