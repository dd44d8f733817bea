// Package hymofs is the client side of the HymoFS kernel rule channel.
//
// HymoFS is a kernel-resident feature that redirects or hides individual
// paths according to rules written through a procfs control file. The
// package provides the feature probe (is the channel present, and does it
// speak our protocol version), the single-line command primitives, and the
// tree-projection operations that translate a whole module directory into
// a rule set.
//
// The channel is write-only: commands are fire-and-forget and a failed
// write is the only error signal. Channel presence is never cached; every
// probe re-reads the control file so the result is always a pure function
// of current system state.
package hymofs

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

const (
	// ControlPath is the procfs control file exposed by the HymoFS kernel
	// module.
	ControlPath = "/proc/hymo_ctl"

	// ExpectedProtocolVersion is the protocol version this client speaks.
	// It is the compatibility contract with the kernel side: any mismatch
	// in either direction means the command vocabulary may have changed
	// shape, so both directions are treated as fully incompatible.
	ExpectedProtocolVersion = 3

	// protocolPrefix is the banner prefix on the first line of the control
	// file.
	protocolPrefix = "HymoFS Protocol: "
)

// Status describes the state of the kernel rule channel as observed by a
// single probe.
type Status int

const (
	// StatusAvailable means the channel exists and speaks exactly the
	// expected protocol version.
	StatusAvailable Status = iota

	// StatusNotPresent means the control file does not exist, cannot be
	// read, or carries no parsable protocol banner.
	StatusNotPresent

	// StatusKernelTooOld means the kernel side speaks an older protocol
	// than this client.
	StatusKernelTooOld

	// StatusModuleTooOld means the kernel side speaks a newer protocol
	// than this client.
	StatusModuleTooOld
)

// String returns the human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusNotPresent:
		return "not present"
	case StatusKernelTooOld:
		return "kernel too old"
	case StatusModuleTooOld:
		return "module too old"
	default:
		return "unknown"
	}
}

// Channel is a handle on the HymoFS control file. The zero value is not
// usable; construct one with New or NewAt.
type Channel struct {
	path    string
	metrics Metrics
}

// New returns a Channel bound to the conventional control file location.
func New() *Channel {
	return NewAt(ControlPath)
}

// NewAt returns a Channel bound to the given control file path. Intended
// for tests; production code uses New.
func NewAt(path string) *Channel {
	return &Channel{path: path}
}

// CheckStatus probes the kernel channel. It is a pure read of the control
// file and never fails: absence, unreadability and malformed banners all
// fold into StatusNotPresent.
func (c *Channel) CheckStatus() Status {
	if _, err := os.Stat(c.path); err != nil {
		return StatusNotPresent
	}

	version, ok := c.protocolVersion()
	if !ok {
		return StatusNotPresent
	}

	switch {
	case version < ExpectedProtocolVersion:
		return StatusKernelTooOld
	case version > ExpectedProtocolVersion:
		return StatusModuleTooOld
	default:
		return StatusAvailable
	}
}

// IsAvailable reports whether the channel is present and protocol
// compatible.
func (c *Channel) IsAvailable() bool {
	return c.CheckStatus() == StatusAvailable
}

// protocolVersion reads the banner line and parses the advertised protocol
// version. ok is false when the file cannot be read or the banner does not
// match the expected shape.
func (c *Channel) protocolVersion() (version int, ok bool) {
	f, err := os.Open(c.path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return 0, false
	}

	line := scanner.Text()
	rest, found := strings.CutPrefix(line, protocolPrefix)
	if !found {
		return 0, false
	}

	version, err = strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, false
	}
	return version, true
}
