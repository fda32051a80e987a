package control

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/barmaleii77-hub/pneumostab/internal/pneumo"
	"github.com/barmaleii77-hub/pneumostab/internal/rig"
	"github.com/barmaleii77-hub/pneumostab/internal/sim"
)

// DefaultInterval is the leveler polling cadence. Slower than the simulation
// tick on purpose: pneumatic leveling is a slow loop.
const DefaultInterval = 20 * time.Millisecond

// Gains holds the per-corner regulator tuning.
type Gains struct {
	Kp     float64
	Ki     float64
	Kd     float64
	Target float64 // lever angle setpoint, rad
}

// DefaultGains is a conservative tuning that settles without hunting on the
// default rig.
var DefaultGains = Gains{Kp: 4.0, Ki: 0.5, Kd: 0.2}

// Leveler regulates each corner's lever angle by modulating the head-chamber
// supply and exhaust valves. Positive effort charges the head chamber to
// lift the corner; negative effort vents it.
type Leveler struct {
	mgr  *sim.Manager
	log  zerolog.Logger
	pids [rig.NumCorners]*PID

	interval time.Duration
	lastStep uint64
	seen     bool
}

func NewLeveler(mgr *sim.Manager, g Gains, log zerolog.Logger) *Leveler {
	l := &Leveler{mgr: mgr, log: log, interval: DefaultInterval}
	for i := range l.pids {
		l.pids[i] = NewPID(g.Kp, g.Ki, g.Kd, g.Target)
	}
	return l
}

// Run polls until the context is cancelled.
func (l *Leveler) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap, ok := l.mgr.Snapshots().TryGetLatest()
			if !ok || (l.seen && snap.Step == l.lastStep) {
				continue
			}
			l.lastStep, l.seen = snap.Step, true
			if err := l.Apply(snap); err != nil {
				l.log.Warn().Err(err).Msg("leveler valve command rejected")
			}
		}
	}
}

// Apply runs one regulation pass against a snapshot. Exported so a single
// pass can be driven directly.
func (l *Leveler) Apply(snap *sim.StateSnapshot) error {
	for _, c := range rig.Corners() {
		u := l.pids[c].Update(snap.Corners[c].Angle, snap.Time)

		supply, exhaust := clamp01(u), 0.0
		if u < 0 {
			supply, exhaust = 0, clamp01(-u)
		}
		if err := l.mgr.SetValve(pneumo.SupplyLine(c, pneumo.HeadChamber), supply); err != nil {
			return err
		}
		if err := l.mgr.SetValve(pneumo.ExhaustLine(c, pneumo.HeadChamber), exhaust); err != nil {
			return err
		}
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
