// Package catalog holds the canonical set of competition slots (level x
// gender x category) and the event-name normalizer that maps free-text event
// labels onto the canonical key space.
package catalog
