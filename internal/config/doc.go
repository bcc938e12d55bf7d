// Package config loads, normalizes, and validates asciireel configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ASCIIREEL_FFMPEG. The Config type centralizes the defaults the convert and
// play commands fall back to when a flag is not given, along with the state
// directory that holds the run history and conversion locks.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
