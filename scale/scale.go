package scale

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
	"sync"

	jump "github.com/dgryski/go-jump"
	wyhash "github.com/dgryski/go-wyhash"

	"github.com/brunotm/zflow"
)

// Route picks which of n replicas payload consistently hashes to, so
// repeated keys are always routed to the same replica — adapted from
// the teacher's task.go (`jump.Hash(record.id, buckets)`), generalized
// from a per-node goroutine pool to a pool of whole RunnerManagers and
// from xxhash-derived record ids to a dedicated wyhash routing key.
func Route(payload []byte, n int) int {
	if n <= 1 {
		return 0
	}
	key := wyhash.Hash(payload, 0)
	return int(jump.Hash(key, int32(n)))
}

// Group is a set of RunnerManagers all running independent replicas of
// the same logical node, addressed by consistent-hash routing
// (SPEC_FULL.md §10, zflow/scale).
type Group struct {
	mu       sync.RWMutex
	managers []*zflow.RunnerManager
}

// NewGroup wraps an initial replica set.
func NewGroup(managers ...*zflow.RunnerManager) *Group {
	return &Group{managers: managers}
}

// Pick returns the RunnerManager msg routes to, or nil if the group is
// empty.
func (g *Group) Pick(msg zflow.Message) *zflow.RunnerManager {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if len(g.managers) == 0 {
		return nil
	}
	return g.managers[Route(msg.Payload, len(g.managers))]
}

// Size reports the current replica count.
func (g *Group) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.managers)
}

// Managers returns a snapshot of every replica's RunnerManager, for
// callers that must act on all of them at once (e.g. the control
// surface's kill/start_recording/stop_recording endpoints, which apply
// to every replica of a scaled node).
func (g *Group) Managers() []*zflow.RunnerManager {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*zflow.RunnerManager, len(g.managers))
	copy(out, g.managers)
	return out
}

// Rescale grows or shrinks the group to exactly n replicas: start is
// invoked once per new replica needed, and replicas removed by a
// shrink are Killed — adapted from the teacher's setScale, which
// grows/shrinks a node's `tasks.buffers` the same way (task.go).
func (g *Group) Rescale(n int, start func() (*zflow.RunnerManager, error)) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for len(g.managers) < n {
		m, err := start()
		if err != nil {
			return err
		}
		g.managers = append(g.managers, m)
	}

	for len(g.managers) > n {
		last := g.managers[len(g.managers)-1]
		g.managers = g.managers[:len(g.managers)-1]
		if err := last.Kill(); err != nil {
			return err
		}
	}
	return nil
}
