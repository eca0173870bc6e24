// Package ixlog is a small toggleable logging shim. The corpus this
// library is drawn from never pulls in a structured-logging dependency
// (no zap, no zerolog in any example repo) — it logs through the
// standard library's log.Logger behind an enable flag and an
// optionally-redirectable writer. ixlog follows that precedent rather
// than introducing a library the teacher never reaches for.
package ixlog

import (
	"io"
	"log"
	"os"
	"sync"
)

var (
	mu      sync.Mutex
	enabled bool
	logger  = log.New(os.Stderr, "ixo: ", log.LstdFlags)
)

// Enable turns logging on or off. Disabled by default so embedding hosts
// get silence unless they opt in.
func Enable(on bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = on
}

// SetOutput redirects log output; passing nil discards it.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = io.Discard
	}
	logger.SetOutput(w)
}

// Printf logs a formatted line when logging is enabled.
func Printf(format string, args ...any) {
	mu.Lock()
	on := enabled
	mu.Unlock()
	if !on {
		return
	}
	logger.Printf(format, args...)
}
