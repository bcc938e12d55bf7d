// Package main hosts the asciireel CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into conversions
// (video to a numbered text-frame store), terminal playback of such a store,
// run history queries, and configuration scaffolding. Configuration
// resolution, logger construction, and the run journal are wired here so the
// internal packages stay free of CLI concerns.
package main
