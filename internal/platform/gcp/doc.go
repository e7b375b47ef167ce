// Package gcp wraps the Compute Engine API behind a small interface.
//
// The wrapper exists for two reasons: the provisioning layer only needs a
// handful of operations (zone discovery, availability probes, instance
// create/start/delete, address lookup), and provider failures must be
// classified into the retry taxonomy the scheduler understands rather than
// leaking SDK error types upward. See errors.go for the classification.
package gcp
