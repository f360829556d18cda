// Package writer implements the language-model collaborators of the
// generation pipeline: research, drafting, quality control, fact
// validation, feedback-driven updates, remediation rewrites, and
// structured-metadata generation.
//
// Every collaborator is a thin struct over a shared chat client; the
// knowledge lives in the prompts. Callers decide which failures are fatal.
package writer
