// Command scribe is the operator CLI and daemon entry point for the article
// generation service. The daemon subcommand runs the worker pool in the
// foreground; the remaining subcommands operate on the queue database
// directly.
package main
