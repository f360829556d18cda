// Package config loads, normalizes, and validates Scribe configuration.
//
// Configuration comes from a TOML file (default ~/.config/scribe/config.toml,
// with ./scribe.toml as a project-local fallback) layered over built-in
// defaults. Load returns a fully expanded Config; callers never see raw
// tilde paths or empty interval fields.
package config
