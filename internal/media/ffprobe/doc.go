// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: per-stream properties, including frame rate and time base
//   - Rational: exact fractions such as "30000/1001"
//
// Inspect executes ffprobe and returns the parsed Result; Parse decodes
// output captured elsewhere.
package ffprobe
