// Package textutil provides small text normalization helpers shared by the
// ingestion and cache layers: whitespace cleanup, display title casing, and
// filesystem-safe key derivation.
package textutil
