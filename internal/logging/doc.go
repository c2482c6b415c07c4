// Package logging provides slog helpers for consistent structured
// logging across the application: a stderr logger constructor, shared
// attribute keys, and sender anonymization for PII-safe log output.
package logging
