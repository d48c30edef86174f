//go:build linux

package cli

import (
	"io"

	"golang.org/x/sys/unix"
)

type fdReader interface {
	Fd() uintptr
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(fdReader)
	if !ok {
		return false
	}

	_, err := unix.IoctlGetTermios(int(f.Fd()), unix.TCGETS)

	return err == nil
}
