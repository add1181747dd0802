// Package schedule provides frame-aligned scheduling primitives.
//
// Scheduler coalesces bursts of requests into a single callback on the next
// frame. Loop is a single-goroutine event loop that delivers frame callbacks
// on a fixed-rate ticker and runs posted host events between frames, so the
// code it drives never needs locking. ManualFrames is a frame source that
// only advances when told to, for tests and headless runs.
package schedule
