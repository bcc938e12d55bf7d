// Package convert turns a video file into a frame store.
//
// A Pipeline probes the input with ffprobe, decodes it through an ffmpeg
// subprocess, keeps frames at the target rate with the sampler, renders each
// kept frame to text, and writes it into per-second bucket directories.
// Per-frame failures are logged and the frame is dropped; failures that
// would corrupt the store layout stop the run.
package convert
