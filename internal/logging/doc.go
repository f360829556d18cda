// Package logging provides the slog construction and helper kit used across
// Scribe: console and JSON handlers, attribute aliases, standardized field
// names, and context-derived logger enrichment.
package logging
