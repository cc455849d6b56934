package recorder

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
	"sync/atomic"

	"github.com/brunotm/zflow"
	"github.com/brunotm/zflow/log"
)

// StoreFactory builds a fresh Store named for the node/port it spools,
// so deployments can choose MossStore, LevelDBStore, or any other Store
// implementation without the runtime caring which.
type StoreFactory func(name string) (Store, error)

var (
	storeFactory StoreFactory
	transport    Transport
)

// Configure wires the Store and Transport every Logger tap uses. Must
// be called before any flow instance starts a Source runner; left
// unconfigured, RunnerManager attaches no recorder (zflow.NewRecorderLogger
// stays nil).
func Configure(sf StoreFactory, t Transport) {
	storeFactory = sf
	transport = t
	zflow.NewRecorderLogger = newLogger
}

// make sure Logger implements zflow.RecorderLogger
var _ zflow.RecorderLogger = (*Logger)(nil)

// Logger taps one Source output port via an extra link, spooling every
// Data message it sees to a Store and publishing it on a Transport
// resource key while recording is on (spec.md §13, modeled on the
// original runtime's ZenohLogger). It always drains rx — recording or
// not — so the tapped Source is never stalled by a slow or absent
// consumer.
type Logger struct {
	id          zflow.NodeId
	resourceKey string
	rx          zflow.Receiver
	store       Store
	log         log.Logger

	recording atomic.Bool
}

func newLogger(ctx zflow.InstanceContext, nodeId zflow.NodeId, portId zflow.PortId, resourceKey string, rx zflow.Receiver) (zflow.RecorderLogger, error) {
	if storeFactory == nil || transport == nil {
		return nil, zflow.ErrUnimplemented
	}

	store, err := storeFactory(string(nodeId))
	if err != nil {
		return nil, err
	}

	return &Logger{
		id:          nodeId,
		resourceKey: resourceKey,
		rx:          rx,
		store:       store,
		log:         log.New("recorder", string(nodeId), "resource", resourceKey),
	}, nil
}

// Run drains rx until ctx is canceled or the link closes, spooling and
// publishing every Data message while recording is on.
func (l *Logger) Run(ctx context.Context) error {
	for {
		msg, err := l.rx.Recv(ctx)
		if err != nil {
			if err == zflow.ErrLinkClosed {
				return nil
			}
			return err
		}

		if !msg.IsData() || !l.recording.Load() {
			continue
		}

		seq, err := l.store.Append(msg.Payload, msg.Timestamp)
		if err != nil {
			l.log.Errorw("spool append failed", "error", err)
			continue
		}

		if err := transport.Publish(ctx, l.resourceKey, msg.Payload); err != nil {
			l.log.Errorw("publish failed", "seq", seq, "error", err)
		}
	}
}

// StartRecording turns recording on and returns this tap's resource key.
func (l *Logger) StartRecording(_ context.Context) (string, error) {
	l.recording.Store(true)
	return l.resourceKey, nil
}

// StopRecording turns recording off and returns this tap's resource key.
func (l *Logger) StopRecording(_ context.Context) (string, error) {
	l.recording.Store(false)
	return l.resourceKey, nil
}

// Close releases the tap's receiver and spool. The shared Transport is
// left open since other Loggers may still be using it.
func (l *Logger) Close() {
	l.rx.Close()
	if err := l.store.Close(); err != nil {
		l.log.Errorw("store close failed", "error", err)
	}
}
