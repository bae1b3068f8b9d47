// Package mockapi implements the profile service and user directory as
// in-memory collaborators with artificial latency and injected failures.
//
// Latency, failure probability and the random source are passed in through
// Options so tests can pin failures to never or always.
package mockapi
