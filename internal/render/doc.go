// Package render turns images into text frames by scaling them to a
// character grid and mapping each cell's luminance onto a character ramp.
package render
