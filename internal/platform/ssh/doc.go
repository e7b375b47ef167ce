// Package ssh confirms a freshly created instance is reachable and hands
// it the setup payload.
//
// Reachability is a plain TCP probe against the administrative port with
// bounded exponential backoff; a hung connect cannot stall the schedule
// because each probe carries its own timeout. Dispatch uploads the payload
// over an SSH session, marks it executable, and runs it once with a fixed
// argument vector, streaming combined output back as it is produced.
//
// Host keys are pinned trust-on-first-use: the first key the instance
// presents is captured, enforced for every later session in the run, and
// recorded in known_hosts format. The key is NOT validated against a
// provider-supplied fingerprint; an active attacker between the first
// handshake and the run could impersonate the instance. This matches the
// behavior of the tooling this replaces and is kept deliberately - see
// DESIGN.md before changing it.
package ssh
