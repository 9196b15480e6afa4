// Package storage reads and writes INI configuration files. A Document is the
// parsed, order-preserving view of one file; a Storage moves documents between
// memory and wherever the bytes live (the local filesystem, or a map in tests).
package storage
