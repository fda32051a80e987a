package sim

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/barmaleii77-hub/pneumostab/internal/dynamo"
	"github.com/barmaleii77-hub/pneumostab/internal/pneumo"
	"github.com/barmaleii77-hub/pneumostab/internal/rig"
	"github.com/barmaleii77-hub/pneumostab/internal/road"
)

func testParams() Params {
	return Params{
		Tick:             time.Millisecond,
		LeverArm:         0.4,
		LeverTail:        0.35,
		ClosedLength:     0.5,
		Bore:             0.08,
		RodDiameter:      0.032,
		Stroke:           0.3,
		DeadVolume:       5e-6,
		ReceiverVolume:   0.02,
		ReceiverPressure: 8e5,
		Valves:           pneumo.NetworkParams{SupplyCv: 0.5, ExhaustCv: 0.5, CrossCv: 0.3},
		Suspension: Suspension{
			SpringRate: 5000,
			Damping:    200,
			Inertia:    2.0,
			TireRate:   200000,
			WheelArm:   0.6,
		},
		Logger: zerolog.Nop(),
	}
}

// drive executes n ticks synchronously, bypassing the wall-clock timer.
func drive(m *Manager, n int) {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	for i := 0; i < n; i++ {
		m.w.tick()
	}
}

func TestManagerConstructionError(t *testing.T) {
	p := testParams()
	p.ClosedLength = 2.0 // violates the lever triangle
	if _, err := NewManager(p); err == nil {
		t.Fatal("expected fatal construction error for bad geometry")
	}

	p = testParams()
	p.Suspension.Inertia = 0
	if _, err := NewManager(p); err == nil {
		t.Fatal("expected fatal construction error for zero inertia")
	}
}

func TestTickAdvancesAndPublishes(t *testing.T) {
	m, err := NewManager(testParams())
	if err != nil {
		t.Fatalf("manager construction failed: %v", err)
	}

	drive(m, 50)

	snap, ok := m.Snapshots().TryGetLatest()
	if !ok {
		t.Fatal("expected a published snapshot")
	}
	if snap.Step != 50 {
		t.Errorf("expected step 50, got %d", snap.Step)
	}
	if math.Abs(snap.Time-0.050) > 1e-9 {
		t.Errorf("expected sim time 0.050, got %g", snap.Time)
	}
	if len(snap.Corners) != rig.NumCorners {
		t.Fatalf("snapshot must enumerate all corners, got %d", len(snap.Corners))
	}
	for _, c := range rig.Corners() {
		cs, ok := snap.Corners[c]
		if !ok {
			t.Fatalf("missing corner %s", c)
		}
		if cs.HeadPressure <= 0 || cs.RodPressure <= 0 {
			t.Errorf("%s: non-positive pressure in snapshot", c)
		}
		if cs.PistonPosition < 0.1*0.3-1e-12 || cs.PistonPosition > 0.9*0.3+1e-12 {
			t.Errorf("%s: piston position %g outside stroke interior", c, cs.PistonPosition)
		}
	}
	if snap.ReceiverPressure <= 0 {
		t.Error("non-positive receiver pressure in snapshot")
	}
}

func TestTrajectoryIsDeterministic(t *testing.T) {
	a, err := NewManager(testParams())
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewManager(testParams())
	if err != nil {
		t.Fatal(err)
	}

	drive(a, 200)

	// Pause/resume between ticks must not perturb the trajectory: the same
	// tick count yields the same state.
	drive(b, 100)
	b.Pause(true)
	b.Pause(false)
	drive(b, 100)

	sa, _ := a.Snapshots().TryGetLatest()
	sb, _ := b.Snapshots().TryGetLatest()
	for _, c := range rig.Corners() {
		if sa.Corners[c] != sb.Corners[c] {
			t.Errorf("%s diverged after pause/resume: %+v vs %+v", c, sa.Corners[c], sb.Corners[c])
		}
	}
}

func TestStopIdempotent(t *testing.T) {
	m, err := NewManager(testParams())
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if err := m.Stop(); err != nil {
		t.Fatalf("first stop failed: %v", err)
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("second stop must be a no-op, got %v", err)
	}
	if m.State() != Stopped {
		t.Errorf("expected stopped state, got %s", m.State())
	}

	// A stopped manager can start again.
	if err := m.Start(); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("stop after restart failed: %v", err)
	}
}

func TestStartWhileRunning(t *testing.T) {
	m, err := NewManager(testParams())
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	defer m.Stop()

	if err := m.Start(); err != ErrAlreadyRunning {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestSnapshotStepsMonotonicDuringRun(t *testing.T) {
	p := testParams()
	p.Tick = 200 * time.Microsecond
	m, err := NewManager(p)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	defer m.Stop()

	deadline := time.After(100 * time.Millisecond)
	last := uint64(0)
	increased := false
	for {
		select {
		case <-deadline:
			if !increased {
				t.Error("step number never increased while running")
			}
			return
		default:
			if s, ok := m.Snapshots().TryGetLatest(); ok {
				if s.Step < last {
					t.Fatalf("step went backwards: %d after %d", s.Step, last)
				}
				if s.Step > last {
					increased = true
				}
				last = s.Step
			}
		}
	}
}

type nanRoad struct{}

func (nanRoad) Elevation(t float64) rig.Heights {
	return rig.Heights{math.NaN(), math.NaN(), math.NaN(), math.NaN()}
}

func TestFaultKeepsLoopAlive(t *testing.T) {
	p := testParams()
	p.Road = nanRoad{}
	m, err := NewManager(p)
	if err != nil {
		t.Fatal(err)
	}

	drive(m, 10)

	st := m.Stats()
	if st.Faults == 0 {
		t.Fatal("expected faults from NaN road input")
	}
	if st.Ticks != 10 {
		t.Errorf("faults must not stop the loop: ran %d of 10 ticks", st.Ticks)
	}
	if st.SimTime < 0.009 {
		t.Errorf("sim time must advance through faulty ticks, got %g", st.SimTime)
	}

	select {
	case f := <-m.Faults():
		if f.Component != "integrator" {
			t.Errorf("expected integrator fault, got %q", f.Component)
		}
		if f.Err == nil {
			t.Error("fault must carry its cause")
		}
		if !dynamo.IsFatal(f) {
			t.Error("NaN state should be classified as a fatal fault")
		}
	default:
		t.Error("expected a fault report on the channel")
	}
}

func TestIntegratorSelection(t *testing.T) {
	for _, name := range []string{"", "ros2", "rk4", "euler"} {
		p := testParams()
		p.Integrator = name
		m, err := NewManager(p)
		if err != nil {
			t.Fatalf("integrator %q rejected: %v", name, err)
		}
		drive(m, 10)
		if st := m.Stats(); st.Ticks != 10 || st.Faults != 0 {
			t.Errorf("integrator %q: %d ticks, %d faults", name, st.Ticks, st.Faults)
		}
	}

	p := testParams()
	p.Integrator = "leapfrog"
	if _, err := NewManager(p); err == nil {
		t.Fatal("expected construction error for unknown integrator")
	}
}

func TestSetterValidation(t *testing.T) {
	m, err := NewManager(testParams())
	if err != nil {
		t.Fatal(err)
	}

	id := pneumo.SupplyLine(rig.FrontLeft, pneumo.HeadChamber)
	if err := m.SetValve(id, 1.5); err == nil {
		t.Error("expected rejection of opening > 1")
	}
	if err := m.SetValve(id, 0.5); err != nil {
		t.Errorf("valid opening rejected: %v", err)
	}

	bad := testParams().Suspension
	bad.Inertia = -1
	if err := m.SetSuspension(bad); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds for negative inertia, got %v", err)
	}

	if err := m.SetRoad(nil); err == nil {
		t.Error("expected rejection of nil road source")
	}
	if err := m.SetRoad(road.Flat{}); err != nil {
		t.Errorf("valid road source rejected: %v", err)
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	m, err := NewManager(testParams())
	if err != nil {
		t.Fatal(err)
	}

	if err := m.SetValve(pneumo.SupplyLine(rig.RearLeft, pneumo.HeadChamber), 1); err != nil {
		t.Fatal(err)
	}
	drive(m, 100)

	if err := m.Reset(); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	st := m.Stats()
	if st.Ticks != 0 || st.SimTime != 0 || st.Faults != 0 {
		t.Errorf("reset must zero the counters: %+v", st)
	}
	if _, ok := m.Snapshots().TryGetLatest(); ok {
		t.Error("reset must clear the snapshot channel")
	}

	// The receiver is back at its charge pressure.
	drive(m, 1)
	snap, _ := m.Snapshots().TryGetLatest()
	if math.Abs(snap.ReceiverPressure-8e5) > 1e5 {
		t.Errorf("receiver should be recharged after reset, got %g", snap.ReceiverPressure)
	}
}
