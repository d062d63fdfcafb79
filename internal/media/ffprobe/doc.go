// Package ffprobe provides a typed wrapper around ffprobe JSON output for
// the narrow metadata contract the pipeline needs: container duration and
// the embedded title/album tags carrying the version marker.
package ffprobe
