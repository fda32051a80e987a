package sim

import (
	"sync/atomic"
	"time"

	"github.com/barmaleii77-hub/pneumostab/internal/rig"
)

// CornerState is the per-corner slice of a snapshot.
type CornerState struct {
	Angle           float64 `json:"angle"`            // rad
	AngularVelocity float64 `json:"angular_velocity"` // rad/s
	PistonPosition  float64 `json:"piston_position"`  // m from head end
	HeadPressure    float64 `json:"head_pressure"`    // Pa
	RodPressure     float64 `json:"rod_pressure"`     // Pa
}

// StateSnapshot is the immutable copy of simulation state emitted once per
// tick. After Publish the worker never touches it again; whoever retrieves
// it owns it.
type StateSnapshot struct {
	Time float64 `json:"time"` // simulation time, s
	Step uint64  `json:"step"`

	Corners          map[rig.Corner]CornerState `json:"corners"`
	ReceiverPressure float64                    `json:"receiver_pressure"`

	MeanStepDuration time.Duration `json:"mean_step_duration"`
	Faults           uint64        `json:"faults"`
}

// SnapshotChannel is the single-slot, overwrite-on-write handoff between the
// simulation goroutine and any number of consumers. Publishing never blocks;
// an unconsumed snapshot is simply replaced. Readers never observe a torn
// snapshot: the pointer swap is atomic and the pointee is never mutated.
type SnapshotChannel struct {
	latest atomic.Pointer[StateSnapshot]
}

func NewSnapshotChannel() *SnapshotChannel {
	return &SnapshotChannel{}
}

// Publish installs s as the latest snapshot, discarding any prior one.
func (c *SnapshotChannel) Publish(s *StateSnapshot) {
	c.latest.Store(s)
}

// TryGetLatest returns the most recently published snapshot without
// blocking. The second return is false before the first publish or after
// Clear.
func (c *SnapshotChannel) TryGetLatest() (*StateSnapshot, bool) {
	s := c.latest.Load()
	return s, s != nil
}

// Clear drops the held snapshot so a stopped simulation leaves no reference
// behind.
func (c *SnapshotChannel) Clear() {
	c.latest.Store(nil)
}
