package sim

import (
	"time"

	"github.com/barmaleii77-hub/pneumostab/internal/dynamo"
)

// RunState is the worker lifecycle state.
type RunState int

const (
	Stopped RunState = iota
	Running
	Paused
)

func (s RunState) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// MarshalText makes run states readable in JSON output.
func (s RunState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *RunState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "running":
		*s = Running
	case "paused":
		*s = Paused
	default:
		*s = Stopped
	}
	return nil
}

// Stats is a point-in-time view of the worker's counters.
type Stats struct {
	State            RunState
	SimTime          float64
	Ticks            uint64
	Faults           uint64
	Overruns         uint64
	MeanStepDuration time.Duration
	Integrator       dynamo.Statistics
}

// durationRing keeps the most recent tick durations for the rolling mean
// reported in snapshots and stats.
type durationRing struct {
	buf   [256]time.Duration
	next  int
	count int
	sum   time.Duration
}

func (r *durationRing) push(d time.Duration) {
	if r.count == len(r.buf) {
		r.sum -= r.buf[r.next]
	} else {
		r.count++
	}
	r.buf[r.next] = d
	r.sum += d
	r.next = (r.next + 1) % len(r.buf)
}

func (r *durationRing) mean() time.Duration {
	if r.count == 0 {
		return 0
	}
	return r.sum / time.Duration(r.count)
}

func (r *durationRing) reset() {
	*r = durationRing{}
}
