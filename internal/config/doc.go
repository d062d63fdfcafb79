// Package config loads, normalizes, and validates medley's TOML
// configuration: data directory layout, input table locations, encoder
// settings, matcher weights, and logging options.
package config
