// Package store persists articles and their generation records in SQLite.
//
// Articles are the content items the daemon works on; each article has at
// most one generation record describing the current (or latest) generation
// attempt. The claim transition on the article row is the only concurrency
// primitive: a worker that wins the claim owns the article until it
// finalizes or rolls back.
package store
