// Package history journals convert and play runs in SQLite.
//
// Every command run opens a row when it starts and closes it with a final
// status and frame counters when it ends. The journal backs `asciireel
// history list` and the run summary shown by `asciireel status`. Schema
// changes bump schemaVersion; users delete the database to adopt a new one.
package history
