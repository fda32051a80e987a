package sim

import (
	"errors"
	"time"

	"github.com/barmaleii77-hub/pneumostab/internal/dynamo"
	"github.com/barmaleii77-hub/pneumostab/internal/pneumo"
	"github.com/barmaleii77-hub/pneumostab/internal/road"
)

// stopTimeout bounds how long Stop waits for an in-flight tick.
const stopTimeout = time.Second

var (
	// ErrAlreadyRunning is returned by Start on a running manager.
	ErrAlreadyRunning = errors.New("sim: simulation already running")

	// ErrStopTimeout means the worker goroutine did not finish its tick
	// within the stop deadline.
	ErrStopTimeout = errors.New("sim: timed out waiting for the worker to stop")
)

// Manager is the lifecycle wrapper around the simulation worker. It is safe
// for concurrent use; all methods may be called from any goroutine.
type Manager struct {
	w *worker
}

// NewManager validates the configuration and builds the rig. The simulation
// does not start until Start is called.
func NewManager(p Params) (*Manager, error) {
	w, err := newWorker(p)
	if err != nil {
		return nil, err
	}
	return &Manager{w: w}, nil
}

// Start launches the simulation goroutine at tick zero.
func (m *Manager) Start() error {
	w := m.w
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != Stopped {
		return ErrAlreadyRunning
	}
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.state = Running
	w.log.Info().Dur("tick", w.params.Tick).Msg("simulation started")
	go w.run(w.stopCh, w.doneCh)
	return nil
}

// Stop halts the loop and waits (bounded) for any in-flight tick to finish.
// It is idempotent: stopping a stopped manager is a no-op.
func (m *Manager) Stop() error {
	w := m.w
	w.mu.Lock()
	if w.state == Stopped {
		done := w.doneCh
		w.mu.Unlock()
		if done == nil {
			return nil
		}
		return awaitDone(done)
	}
	w.state = Stopped
	close(w.stopCh)
	done := w.doneCh
	w.log.Info().Uint64("ticks", w.step).Msg("simulation stopping")
	w.mu.Unlock()

	return awaitDone(done)
}

func awaitDone(done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-time.After(stopTimeout):
		return ErrStopTimeout
	}
}

// Pause suspends or resumes ticking without touching any state. Pausing a
// stopped manager is a no-op.
func (m *Manager) Pause(pause bool) {
	w := m.w
	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case pause && w.state == Running:
		w.state = Paused
		w.log.Info().Float64("sim_time", w.simTime).Msg("simulation paused")
	case !pause && w.state == Paused:
		w.state = Running
		w.log.Info().Float64("sim_time", w.simTime).Msg("simulation resumed")
	}
}

// Reset stops the simulation if needed and rebuilds the rig to its initial
// state. The snapshot channel is cleared so no stale frame survives.
func (m *Manager) Reset() error {
	if err := m.Stop(); err != nil {
		return err
	}
	w := m.w
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.buildRig(); err != nil {
		return err
	}
	w.channel.Clear()
	w.log.Info().Msg("simulation reset")
	return nil
}

// State returns the current lifecycle state.
func (m *Manager) State() RunState {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	return m.w.state
}

// Stats returns a copy of the worker counters.
func (m *Manager) Stats() Stats { return m.w.stats() }

// Snapshots exposes the latest-value channel consumers poll.
func (m *Manager) Snapshots() *SnapshotChannel { return m.w.channel }

// Faults exposes the per-tick fault reports. The channel is buffered; the
// worker never blocks on it.
func (m *Manager) Faults() <-chan *dynamo.Fault { return m.w.faults }

// SetValve commands a valve opening; applied between ticks.
func (m *Manager) SetValve(id pneumo.LineID, opening float64) error {
	return m.w.setValve(id, opening)
}

// SetThermoMode switches the gas law; applied between ticks.
func (m *Manager) SetThermoMode(mode pneumo.ThermoMode) { m.w.setMode(mode) }

// SetSuspension replaces the mechanical coefficients; applied between ticks.
func (m *Manager) SetSuspension(s Suspension) error { return m.w.setSuspension(s) }

// SetRoad swaps the excitation source; applied between ticks.
func (m *Manager) SetRoad(src road.Source) error { return m.w.setRoad(src) }
