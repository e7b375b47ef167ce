// Package orchestration coordinates one end-to-end acquisition run.
//
// The run executes the following stages in order:
//  1. Search - candidate generation and the serial provision search
//  2. Report - the single machine-readable result line on stdout
//  3. Reachability - wait for the instance to accept SSH connections
//  4. Dispatch - transfer and execute the setup payload
//
// A later stage never begins before the earlier one has fully resolved.
// Stage failures surface to the caller with a classified, human-readable
// reason; nothing is swallowed.
package orchestration
