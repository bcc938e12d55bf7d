// Package audio plays sound files through the system speaker using beep.
//
// Output owns one speaker stream fed by a sequential queue: Load appends a
// decoded file to the queue, Stop empties it, and Drained reports when the
// queued audio has finished. The speaker is opened lazily at the sample rate
// of the first loaded file; later files are resampled to match.
package audio
