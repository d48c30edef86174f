//go:build !linux

package cli

import "io"

// isTerminal always reports false; configure reads credentials line by line.
func isTerminal(io.Reader) bool {
	return false
}
