// Package pipeline drives a queued article through the fixed generation
// sequence: research, illustration, drafting, screenshot capture, quality
// control, fact validation and audit, structural compliance, remediation,
// schema generation, and finalization.
//
// The runner owns the generation record for the whole attempt. Collaborators
// only compute; every durable write goes through the store from the runner
// goroutine, so artifact merges never race. Fatal phases roll the article
// back to draft and mark the record failed; optional phases degrade to a
// documented default and the run continues.
package pipeline
