// Package services holds the shared plumbing for external collaborator
// clients: the sentinel error taxonomy used to classify phase failures and
// the context annotations that thread article, phase, and correlation
// identifiers through collaborator calls.
//
// Concrete clients live in subpackages (llm, writer, seo, imagery, snapshot).
package services
