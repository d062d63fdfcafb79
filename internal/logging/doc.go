// Package logging wires log/slog for the rest of the application. It builds
// loggers from configuration (console or JSON output, optional log file),
// exposes attribute helpers so call sites stay terse, and provides component
// loggers carrying a standardized component attribute.
package logging
