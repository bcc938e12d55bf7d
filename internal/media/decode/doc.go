// Package decode streams raw RGB frames and their presentation timestamps out
// of a video file by running ffmpeg as a subprocess.
//
// ffmpeg writes packed rgb24 frames to stdout while its showinfo filter logs
// one line per frame to stderr. Source reads both pipes concurrently and pairs
// the n-th frame with the n-th logged timestamp. WithTimeBase rescales
// timestamps before they are logged so callers can count in whole frames.
package decode
