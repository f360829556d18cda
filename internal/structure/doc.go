// Package structure defines the declarative article-structure template:
// ordered section specs with cardinality and length constraints. Templates
// are loaded once from configuration and treated as immutable for the
// duration of a generation attempt.
package structure
