// Package preflight provides readiness checks for the external binaries and
// filesystem paths asciireel depends on.
//
// The CLI "asciireel status" command runs RunAll and CheckSystemDeps to show
// whether conversion and playback can start; convert also runs the directory
// checks before probing its input so permission problems surface early.
package preflight
