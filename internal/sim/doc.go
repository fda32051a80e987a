// Package sim drives the fixed-timestep suspension rig simulation.
//
// Exactly two kinds of actors exist: one worker goroutine that owns every
// piece of mutable simulation state, and any number of consumers that poll
// [SnapshotChannel.TryGetLatest] at their own cadence. The worker publishes
// an immutable [StateSnapshot] each tick and never waits for consumers; a
// slow consumer only ever misses frames, it cannot stall the physics.
//
// [Manager] is the lifecycle surface: Start, Stop, Pause, Reset, plus
// between-tick parameter setters.
package sim
