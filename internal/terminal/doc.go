// Package terminal drives the playback terminal: entering and leaving the
// alternate screen, hiding the cursor, repainting frames, and querying the
// window size.
package terminal
