// Package dispatch launches a batch of external commands in parallel,
// tracks a handle per task, and waits for every task to reach a terminal
// state. Cancellation kills all still-running processes and returns the
// results collected so far, with killed tasks marked as cancelled.
//
// The package does not interpret task output and owns no persistent
// state; processes append to their configured output destinations at
// whatever atomicity the underlying writes provide.
package dispatch
