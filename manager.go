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
	"sync"

	"github.com/brunotm/zflow/log"
)

// RecorderLogger is the capability a Logger tap exposes to the
// RunnerManager that owns it: start/stop its background publish loop
// and toggle recording on the underlying Store (spec.md §13). Defined
// here rather than in zflow/recorder so the root package never imports
// it back (recorder imports zflow for NodeId/PortId/Message/Receiver).
type RecorderLogger interface {
	// Run drives the tap's publish loop until ctx is canceled.
	Run(ctx context.Context) error
	StartRecording(ctx context.Context) (string, error)
	StopRecording(ctx context.Context) (string, error)
	Close()
}

// NewRecorderLogger is a hook the zflow/recorder package fills in when
// recorder.Configure is called. It builds a RecorderLogger tapping rx, publishing
// under resourceKey. Left nil, RunnerManager never attaches a recorder.
var NewRecorderLogger func(ctx InstanceContext, nodeId NodeId, portId PortId, resourceKey string, rx Receiver) (RecorderLogger, error)

// RunnerManager supervises one Runner's lifecycle: a restart loop that
// races the runner's Run against a cooperative stop signal, and
// (for Source runners) an attached Logger tap reachable through
// start_recording/stop_recording (spec.md §5 "RunnerManager").
type RunnerManager struct {
	ctx    InstanceContext
	runner Runner
	log    log.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan error

	logger       RecorderLogger
	loggerCancel context.CancelFunc
}

// StartRunner launches runner's supervised restart loop in the
// background and returns the RunnerManager controlling it. If runner is
// a Source, a Logger tap is reserved on an extra output link and
// started automatically, idle until StartRecording is called
// (spec.md §13).
func StartRunner(parent context.Context, ctx InstanceContext, runner Runner) (*RunnerManager, error) {
	m := &RunnerManager{
		ctx:    ctx,
		runner: runner,
		log:    log.New("node", string(runner.Id()), "kind", runner.Kind().String()),
		stopCh: make(chan struct{}),
		done:   make(chan error, 1),
	}

	if runner.Kind() == RunnerSource && NewRecorderLogger != nil {
		outputs := runner.Outputs().Ids()
		if len(outputs) > 0 {
			tapPort := outputs[len(outputs)-1]
			tx, rx := NewLink(tapPort, 0)
			if err := runner.AddOutput(tapPort, tx); err != nil {
				return nil, err
			}

			resourceKey := ctx.RecorderResourceKey(runner.Id(), tapPort)
			recorderId := ctx.RecorderId(runner.Id(), tapPort)
			logger, err := NewRecorderLogger(ctx, recorderId, tapPort, resourceKey, rx)
			if err != nil {
				return nil, err
			}

			logCtx, cancel := context.WithCancel(parent)
			m.logger = logger
			m.loggerCancel = cancel
			go func() {
				if err := logger.Run(logCtx); err != nil && logCtx.Err() == nil {
					m.log.Errorw("recorder tap exited", "error", err)
				}
			}()
		}
	}

	go m.superviseLoop(parent)
	return m, nil
}

// superviseLoop races runner.Run against the stop signal, restarting
// Run without re-initializing state whenever it returns an error
// (spec.md §5 "Supervised restart, no backoff"). The stop signal always
// wins a simultaneous race.
func (m *RunnerManager) superviseLoop(parent context.Context) {
	defer close(m.done)

	for {
		select {
		case <-m.stopCh:
			return
		default:
		}

		runCtx, cancel := context.WithCancel(parent)
		errCh := make(chan error, 1)
		go func() {
			errCh <- m.runner.Run(runCtx)
		}()

		select {
		case <-m.stopCh:
			cancel()
			<-errCh
			return
		case err := <-errCh:
			cancel()
			if err != nil {
				m.log.Errorw("run loop exited, restarting", "error", err)
				continue
			}
		}
	}
}

// Kill signals the supervised loop and any attached Logger tap to stop,
// and blocks until the loop has exited and Clean has run. Kill is
// idempotent and safe to call from multiple observers (spec.md §5):
// only the first call stops the tap and runs Clean; later calls wait
// for the loop to exit and return nil.
func (m *RunnerManager) Kill() error {
	first := false
	m.stopOnce.Do(func() {
		first = true
		// kill() triggers the logger stop signal (if any) then the main
		// stop signal (spec.md §4.5), matching the original's
		// logger_stopper.trigger() before stopper.trigger().
		if m.loggerCancel != nil {
			m.loggerCancel()
		}
		if m.logger != nil {
			m.logger.Close()
		}
		close(m.stopCh)
	})
	<-m.done
	if !first {
		return nil
	}
	return m.runner.Clean()
}

// StartRecording toggles the attached Logger on, returning its resource
// key. Returns "" with no error for node kinds with no attached
// recorder (spec.md §13).
func (m *RunnerManager) StartRecording(ctx context.Context) (string, error) {
	if m.logger == nil {
		return "", nil
	}
	return m.logger.StartRecording(ctx)
}

// StopRecording toggles the attached Logger off, returning its resource
// key. Returns "" with no error for node kinds with no attached
// recorder.
func (m *RunnerManager) StopRecording(ctx context.Context) (string, error) {
	if m.logger == nil {
		return "", nil
	}
	return m.logger.StopRecording(ctx)
}

// Context returns the InstanceContext this manager's runner belongs to.
func (m *RunnerManager) Context() InstanceContext { return m.ctx }

// Runner returns the wrapped Runner for introspection (get_id,
// get_inputs, get_outputs, get_input_links, get_outputs_links).
func (m *RunnerManager) Runner() Runner { return m.runner }
