// Package player replays a discovered frame store at a fixed rate.
//
// A Scheduler loads every frame into memory up front, then renders them in
// order, sleeping after each frame for whatever remains of its slot. It can
// loop the sequence and, when asked, restart the audio track at each loop
// boundary. Cancelling the context interrupts playback at the next sleep.
package player
