package sim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/barmaleii77-hub/pneumostab/internal/dynamo"
	"github.com/barmaleii77-hub/pneumostab/internal/integrators"
	"github.com/barmaleii77-hub/pneumostab/internal/kinematics"
	"github.com/barmaleii77-hub/pneumostab/internal/observability"
	"github.com/barmaleii77-hub/pneumostab/internal/pneumo"
	"github.com/barmaleii77-hub/pneumostab/internal/rig"
	"github.com/barmaleii77-hub/pneumostab/internal/road"
)

const (
	// DefaultTick is the nominal fixed timestep.
	DefaultTick = time.Millisecond

	// faultBuffer bounds the fault report channel; reports beyond it are
	// dropped rather than ever blocking the loop.
	faultBuffer = 64
)

// Params assembles a complete rig. Geometry errors surface at construction,
// before the worker can start.
type Params struct {
	Tick time.Duration
	Mode pneumo.ThermoMode

	// Lever geometry, shared by all corners (m).
	LeverArm     float64
	LeverTail    float64
	ClosedLength float64

	// Cylinder geometry (m, m³).
	Bore        float64
	RodDiameter float64
	Stroke      float64
	DeadVolume  float64

	// Receiver tank.
	ReceiverVolume   float64 // m³
	ReceiverPressure float64 // Pa

	Valves     pneumo.NetworkParams
	Suspension Suspension
	Road       road.Source

	// Integrator selects the stepping method by name; empty means the
	// implicit default. See integrators.New.
	Integrator string

	Logger  zerolog.Logger
	Metrics *observability.Collector
}

// worker owns all simulation state and runs the fixed-timestep loop on its
// own goroutine. Consumers see only the snapshot channel and the fault
// channel.
type worker struct {
	params  Params
	log     zerolog.Logger
	metrics *observability.Collector

	// mu serializes ticks against lifecycle transitions and parameter
	// setters, so setters always land between ticks.
	mu     sync.Mutex
	state  RunState
	stopCh chan struct{}
	doneCh chan struct{}

	levers   [rig.NumCorners]*kinematics.Lever
	network  *pneumo.GasNetwork
	stepper  dynamo.Stepper
	dynamics *rigDynamics
	roadSrc  road.Source

	simTime    float64
	step       uint64
	faultCount uint64
	overruns   uint64
	ring       durationRing

	channel *SnapshotChannel
	faults  chan *dynamo.Fault
}

func newWorker(p Params) (*worker, error) {
	if p.Tick <= 0 {
		p.Tick = DefaultTick
	}
	if p.Road == nil {
		p.Road = road.Flat{}
	}
	if err := p.Suspension.validate(); err != nil {
		return nil, err
	}

	w := &worker{
		params:  p,
		log:     p.Logger,
		metrics: p.Metrics,
		roadSrc: p.Road,
		channel: NewSnapshotChannel(),
		faults:  make(chan *dynamo.Fault, faultBuffer),
	}
	if err := w.buildRig(); err != nil {
		return nil, err
	}
	return w, nil
}

// buildRig constructs levers, cylinders, receiver, network, and the stepper
// from the stored parameters. It is also the reset path.
func (w *worker) buildRig() error {
	p := w.params

	for i := range w.levers {
		lever, err := kinematics.NewLever(p.LeverArm, p.LeverTail, p.ClosedLength)
		if err != nil {
			return err
		}
		w.levers[i] = lever
	}

	var cylinders [rig.NumCorners]*pneumo.Cylinder
	for i := range cylinders {
		c, err := pneumo.NewCylinder(p.Bore, p.RodDiameter, p.Stroke, p.DeadVolume)
		if err != nil {
			return err
		}
		cylinders[i] = c
	}
	receiver, err := pneumo.NewReceiver(p.ReceiverVolume, p.ReceiverPressure)
	if err != nil {
		return err
	}
	network, err := pneumo.NewGasNetwork(cylinders, receiver, p.Valves)
	if err != nil {
		return err
	}
	network.SetMode(p.Mode)
	w.network = network

	w.dynamics = &rigDynamics{levers: w.levers, susp: p.Suspension}

	stepper, err := integrators.New(p.Integrator)
	if err != nil {
		return err
	}
	w.stepper = stepper
	y0 := make(dynamo.State, stateDim)
	for i := range w.levers {
		// Start with the piston at mid-stroke.
		y0[i] = w.levers[i].StrokeToAngle(p.Stroke / 2)
	}
	w.stepper.Reset(0, y0)

	w.simTime = 0
	w.step = 0
	w.faultCount = 0
	w.overruns = 0
	w.ring.reset()
	return nil
}

// run is the simulation goroutine: a periodic timer drives ticks until the
// stop channel closes. It never blocks on consumers.
func (w *worker) run(stopCh chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(w.params.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			w.mu.Lock()
			if w.state == Running {
				w.tick()
			}
			w.mu.Unlock()
		}
	}
}

// tick executes one fixed timestep. Faults in the physics stages are
// reported and the loop carries on; simulation time advances regardless.
func (w *worker) tick() {
	start := time.Now()
	dt := w.params.Tick.Seconds()

	heights := w.roadSrc.Elevation(w.simTime)
	_, y := w.stepper.Current()

	for i, corner := range rig.Corners() {
		stroke := w.levers[i].AngleToStroke(y[i])
		w.network.Cylinder(corner).SetPosition(stroke)
	}
	w.dynamics.road = heights

	healthy := true
	if err := w.network.ApplyFlows(dt); err != nil {
		w.reportFault("gas_network", err)
		healthy = false
	}

	for i, corner := range rig.Corners() {
		w.dynamics.forces[i] = w.network.Cylinder(corner).Force()
	}

	if healthy {
		if _, err := w.stepper.Step(w.dynamics, dt); err != nil {
			// The stepper keeps its pre-step state on failure, so the
			// next tick retries from a consistent point.
			w.reportFault("integrator", err)
		}
	}

	w.publishSnapshot()

	w.simTime += dt
	w.step++

	elapsed := time.Since(start)
	w.ring.push(elapsed)
	if elapsed > w.params.Tick {
		w.overruns++
	}
	if w.metrics != nil {
		w.metrics.ObserveTick(elapsed, w.params.Tick)
	}
}

func (w *worker) publishSnapshot() {
	_, y := w.stepper.Current()

	corners := make(map[rig.Corner]CornerState, rig.NumCorners)
	for i, corner := range rig.Corners() {
		cyl := w.network.Cylinder(corner)
		corners[corner] = CornerState{
			Angle:           y[i],
			AngularVelocity: y[rig.NumCorners+i],
			PistonPosition:  cyl.Position(),
			HeadPressure:    cyl.Head.Pressure,
			RodPressure:     cyl.Rod.Pressure,
		}
		if w.metrics != nil {
			w.metrics.CornerPressure.WithLabelValues(corner.String(), "head").Set(cyl.Head.Pressure)
			w.metrics.CornerPressure.WithLabelValues(corner.String(), "rod").Set(cyl.Rod.Pressure)
		}
	}

	snap := &StateSnapshot{
		Time:             w.simTime,
		Step:             w.step,
		Corners:          corners,
		ReceiverPressure: w.network.ReceiverPressure(),
		MeanStepDuration: w.ring.mean(),
		Faults:           w.faultCount,
	}
	w.channel.Publish(snap)

	if w.metrics != nil {
		w.metrics.ReceiverPressure.Set(snap.ReceiverPressure)
	}
}

func (w *worker) reportFault(component string, err error) {
	var fault *dynamo.Fault
	if errors.Is(err, dynamo.ErrInvalidState) {
		fault = dynamo.NewFatal(component, w.step, w.simTime, err)
	} else {
		fault = dynamo.NewRecoverable(component, w.step, w.simTime, err)
	}

	w.faultCount++
	evt := w.log.Warn()
	if dynamo.IsFatal(fault) {
		evt = w.log.Error()
	}
	evt.
		Str("component", component).
		Uint64("step", fault.Step).
		Float64("sim_time", fault.Time).
		Str("severity", fault.Severity.String()).
		Err(err).
		Msg("tick fault")

	if w.metrics != nil {
		w.metrics.FaultsTotal.WithLabelValues(component, fault.Severity.String()).Inc()
	}

	select {
	case w.faults <- fault:
	default:
		// Consumer is not draining; dropping is preferable to stalling.
	}
}

func (w *worker) stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{
		State:            w.state,
		SimTime:          w.simTime,
		Ticks:            w.step,
		Faults:           w.faultCount,
		Overruns:         w.overruns,
		MeanStepDuration: w.ring.mean(),
		Integrator:       w.stepper.Stats(),
	}
}

func (w *worker) setValve(id pneumo.LineID, opening float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.network.SetValve(id, opening)
}

func (w *worker) setMode(m pneumo.ThermoMode) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.network.SetMode(m)
}

func (w *worker) setSuspension(s Suspension) error {
	if err := s.validate(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dynamics.susp = s
	return nil
}

func (w *worker) setRoad(src road.Source) error {
	if src == nil {
		return fmt.Errorf("sim: road source must not be nil")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.roadSrc = src
	return nil
}
