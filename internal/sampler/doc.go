// Package sampler decides which decoded frames are kept when a video is
// reduced to a target frame rate, and groups kept frames into one-second
// buckets.
//
// The keep rule compares presentation timestamps in source ticks: a frame is
// kept when its timestamp is known and at least Threshold ticks after the
// previously kept one. Bucket converts a kept timestamp to whole seconds using
// the stream time base. Sampler wraps both with the running state of a single
// conversion.
package sampler
