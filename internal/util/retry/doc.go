// Package retry provides a bounded exponential backoff loop shared by the
// provider and SSH layers.
package retry
