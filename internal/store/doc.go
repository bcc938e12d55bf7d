// Package store owns the on-disk frame store produced by conversion and
// consumed by playback.
//
// The layout is the database:
//
//	<root>/<second>/<frame>.txt
//	<root>/<frame>.txt      loose frames, treated as second 0
//	<root>/_temp_frame.png  scratch image, present only during conversion
//
// Writer assigns per-second frame numbers as text frames are persisted.
// Discover rebuilds the playback order from the layout alone, so stores
// written by older runs or by hand play back the same way. Index is the
// in-memory form of that order.
package store
