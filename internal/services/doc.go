// Package services defines shared utilities consumed by the conversion and
// playback components.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers and stage names for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (I/O, not found, validation, configuration, external tool) so commands
//     and the run history can report them consistently.
//
// Use these helpers when wiring new components so fatal and recoverable
// failures keep a uniform shape across the tool.
package services
