package control

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
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/brunotm/zflow"
	"github.com/brunotm/zflow/scale"
)

// Config configures the admin HTTP server, adapted from the teacher's
// internal/httpserver.Config.
type Config struct {
	Addr              string
	BasicAuthUser     string
	BasicAuthPassword string
	WriteTimeout      time.Duration
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
}

// Server exposes per-node kill/start_recording/stop_recording control
// endpoints over HTTP (spec.md §2), adapted from the teacher's
// internal/httpserver.Server directly around a registry of
// *scale.Group instead of a generic AddHandler surface. A node with a
// single replica is just a Group of size one; kill/start_recording/
// stop_recording apply to every replica so a scaled node's control
// surface stays uniform regardless of its replica count.
type Server struct {
	config Config
	http   *http.Server
	router *httprouter.Router

	mu     sync.RWMutex
	groups map[zflow.NodeId]*scale.Group
}

// New builds a Server listening on config.Addr, with no nodes
// registered yet.
func New(config Config) *Server {
	s := &Server{
		config: config,
		router: httprouter.New(),
		groups: make(map[zflow.NodeId]*scale.Group),
	}

	s.http = &http.Server{Addr: config.Addr, Handler: s.router}
	if config.WriteTimeout != 0 {
		s.http.WriteTimeout = config.WriteTimeout
	}
	if config.ReadTimeout != 0 {
		s.http.ReadTimeout = config.ReadTimeout
	}
	if config.ReadHeaderTimeout != 0 {
		s.http.ReadHeaderTimeout = config.ReadHeaderTimeout
	}

	s.router.GET("/nodes", s.auth(s.listNodes))
	s.router.POST("/nodes/:id/kill", s.auth(s.killNode))
	s.router.POST("/nodes/:id/start_recording", s.auth(s.startRecording))
	s.router.POST("/nodes/:id/stop_recording", s.auth(s.stopRecording))

	return s
}

// Register makes the single replica m reachable under its node id's
// control endpoints, as a Group of size one.
func (s *Server) Register(m *zflow.RunnerManager) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[m.Runner().Id()] = scale.NewGroup(m)
}

// RegisterScaled builds id's replica count from cfg's dot-path
// "nodes.<id>.scale" setting (config.go's Config, the runtime-level
// "replica scale" item), starts that many replicas via start, and
// registers the resulting Group under id. Replicas are started
// sequentially; if start fails partway, the replicas already started
// are left running and the error is returned so the caller can decide
// whether to unwind them.
func (s *Server) RegisterScaled(cfg zflow.Config, id zflow.NodeId, start func() (*zflow.RunnerManager, error)) (*scale.Group, error) {
	n := cfg.Get("nodes", string(id), "scale").Int(1)
	if n < 1 {
		n = 1
	}

	group := scale.NewGroup()
	if err := group.Rescale(n, start); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.groups[id] = group
	s.mu.Unlock()
	return group, nil
}

// Unregister removes a node from the control surface, e.g. once every
// replica of its Group has been Killed for good.
func (s *Server) Unregister(id zflow.NodeId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groups, id)
}

// Start serves until the process is shut down or Close is called.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close gracefully shuts the HTTP server down.
func (s *Server) Close(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) auth(h httprouter.Handle) httprouter.Handle {
	if s.config.BasicAuthUser == "" {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		user, password, ok := r.BasicAuth()
		if !ok || user != s.config.BasicAuthUser || password != s.config.BasicAuthPassword {
			w.Header().Set("WWW-Authenticate", `Basic realm="zflow"`)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		h(w, r, ps)
	}
}

func (s *Server) lookup(id string) *scale.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groups[zflow.NodeId(id)]
}

func (s *Server) listNodes(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.groups))
	for id := range s.groups {
		ids = append(ids, string(id))
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) killNode(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	group := s.lookup(ps.ByName("id"))
	if group == nil {
		http.Error(w, "node not found", http.StatusNotFound)
		return
	}
	for _, m := range group.Managers() {
		if err := m.Kill(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) startRecording(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	group := s.lookup(ps.ByName("id"))
	if group == nil {
		http.Error(w, "node not found", http.StatusNotFound)
		return
	}
	keys, err := recordingKeys(r.Context(), group.Managers(), (*zflow.RunnerManager).StartRecording)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"resource_keys": keys})
}

func (s *Server) stopRecording(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	group := s.lookup(ps.ByName("id"))
	if group == nil {
		http.Error(w, "node not found", http.StatusNotFound)
		return
	}
	keys, err := recordingKeys(r.Context(), group.Managers(), (*zflow.RunnerManager).StopRecording)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"resource_keys": keys})
}

// recordingKeys invokes toggle (StartRecording or StopRecording) on
// every replica in managers, collecting the non-empty resource keys.
// Replicas with no attached recorder (every kind but Source) return ""
// and contribute nothing.
func recordingKeys(
	ctx context.Context,
	managers []*zflow.RunnerManager,
	toggle func(*zflow.RunnerManager, context.Context) (string, error),
) ([]string, error) {
	keys := make([]string, 0, len(managers))
	for _, m := range managers {
		key, err := toggle(m, ctx)
		if err != nil {
			return nil, err
		}
		if key != "" {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
