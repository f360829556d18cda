// Package daemon runs the background generation service. It enforces
// single-instance execution with a file lock, requeues work a previous
// process left in progress, and feeds queued articles to a pool of workers.
package daemon
