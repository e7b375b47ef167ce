// Package naming provides consistent naming functions for acquired VM
// resources.
//
// Instance names follow the pattern {prefix}-{timestamp} so that every
// acquisition run produces a unique, sortable name and an operator can
// tell at a glance when an instance was created.
package naming
