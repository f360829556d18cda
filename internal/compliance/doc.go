// Package compliance checks generated drafts against the tenant's
// article-structure template.
//
// Parse builds a structural digest of a markdown draft (title count, intro
// length, body sections, bullet and FAQ items, media and table presence)
// using the goldmark AST. Validate scores the digest against a
// structure.Template and returns violations, a 0-100 score, and templated
// recommendations. Both functions are deterministic and side-effect free;
// results are snapshotted into the generation record, never kept as state.
package compliance
