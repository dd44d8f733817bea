package hymofs

import (
	"fmt"
	"os"
	"strings"

	"github.com/hymofs/hymo/internal/logger"
)

// Rule type tags understood by the kernel side of the channel. The tag
// selects how the kernel substitutes the target path.
const (
	// RuleTypeDefault is the tag used when a rule does not specify one.
	RuleTypeDefault = 0

	// RuleTypeFile substitutes the target with a regular file.
	RuleTypeFile = 8

	// RuleTypeSymlink substitutes the target with a symbolic link.
	RuleTypeSymlink = 10
)

// Sender delivers a single command line to the rule channel. The narrow
// interface keeps the tree-projection logic independent of the transport,
// so it can be tested against a recording fake instead of the real control
// file.
type Sender interface {
	Send(cmd string) error
}

// Metrics records command outcomes on the channel. A nil Metrics disables
// recording with zero overhead.
type Metrics interface {
	// RecordCommand counts one command by verb ("add", "hide", ...) and
	// result ("success" or "failure").
	RecordCommand(verb, result string)
}

// SetMetrics attaches a metrics recorder to the channel.
func (c *Channel) SetMetrics(m Metrics) {
	c.metrics = m
}

// Send writes one newline-terminated command to the control file. Each
// call opens and truncates the file for writing; success means the write
// completed, nothing more — there is no read-back on this channel.
func (c *Channel) Send(cmd string) error {
	err := c.send(cmd)
	if c.metrics != nil {
		result := "success"
		if err != nil {
			result = "failure"
		}
		verb, _, _ := strings.Cut(cmd, " ")
		c.metrics.RecordCommand(verb, result)
	}
	return err
}

func (c *Channel) send(cmd string) error {
	f, err := os.OpenFile(c.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", c.path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, cmd); err != nil {
		return fmt.Errorf("write %s: %w", c.path, err)
	}

	logger.Debug("hymofs command sent", logger.KeyCommand, cmd)
	return nil
}

// Client issues HymoFS rule commands over a Sender. It is stateless: every
// method maps to exactly one command line.
type Client struct {
	sender Sender
}

// NewClient returns a Client that sends commands through the given Sender.
func NewClient(sender Sender) *Client {
	return &Client{sender: sender}
}

// Clear removes every rule currently held by the kernel.
func (cl *Client) Clear() error {
	return cl.sender.Send("clear")
}

// AddRule registers a redirect of target to source with the given type
// tag. Pass RuleTypeDefault when the rule has no specific type.
func (cl *Client) AddRule(target, source string, typeTag int) error {
	return cl.sender.Send(fmt.Sprintf("add %s %s %d", target, source, typeTag))
}

// DeleteRule removes the rule registered for target, if any.
func (cl *Client) DeleteRule(target string) error {
	return cl.sender.Send("delete " + target)
}

// HidePath marks target as suppressed: lookups under it behave as if the
// path did not exist.
func (cl *Client) HidePath(target string) error {
	return cl.sender.Send("hide " + target)
}

// InjectDir marks dir as an injection boundary, the root under which
// subsequent file-level rules apply.
func (cl *Client) InjectDir(dir string) error {
	return cl.sender.Send("inject " + dir)
}
