// Package configstore reads and updates options in the SUT configuration file.
//
// Every call resolves the active file (override first, then default), parses
// it, and for writes persists the whole file back. Nothing is locked: a set is
// a read followed by a write, so callers must not run concurrent writers
// against the same file from different processes.
package configstore
