//go:build !linux

package logger

// isTerminal reports false on non-Linux platforms; hymo only mounts on
// Linux, and colorless logs are the safe default everywhere else.
func isTerminal(uintptr) bool {
	return false
}
