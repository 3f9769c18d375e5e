// Package playback schedules received audio frames onto a local timeline.
//
// The Scheduler keeps a playhead a short, bounded lead ahead of the audio clock.
// Frames queue back to back while the lead stays inside the configured window;
// an overbuilt buffer is pulled back by a fixed step and an underrun snaps the
// playhead forward to now plus the target lead. Frames are never dropped.
package playback
