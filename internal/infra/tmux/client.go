// Package tmux wraps the tmux binary for session management.
package tmux

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// commandTimeout bounds every tmux invocation so a wedged server cannot
// hang a poll or kill indefinitely.
const commandTimeout = 5 * time.Second

// Client manages tmux sessions on a dedicated socket, keeping orchd
// sessions isolated from the user's own tmux server.
type Client struct {
	socketPath string
}

// NewClient creates a tmux client using the given socket path.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// Start creates a new detached session running the command in dir.
func (c *Client) Start(ctx context.Context, name, dir, command string) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	// tmux -S <socket> new-session -d -s <name> -c <dir> <command>
	cmd := exec.CommandContext(ctx, "tmux",
		"-S", c.socketPath,
		"new-session",
		"-d",
		"-s", name,
		"-c", dir,
		command,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("start session: %w: %s", err, string(out))
	}
	return nil
}

// Has checks whether a session exists.
func (c *Client) Has(name string) (bool, error) {
	// Exit code 0 = exists, 1 = doesn't exist. Other errors usually mean
	// the server isn't running at all, which also means no session.
	_, err := c.run("has-session", "-t", name)
	return err == nil, nil
}

// Kill terminates a session. It first sends SIGTERM to the pane's child
// processes so agents shut down instead of being orphaned, then kills the
// session itself.
func (c *Client) Kill(name string) error {
	for _, pid := range c.panePIDs(name) {
		// The process may already be gone or childless; both are fine.
		_ = exec.Command("pkill", "-TERM", "-P", strconv.Itoa(pid)).Run()
	}

	if out, err := c.run("kill-session", "-t", name); err != nil {
		// Killing the children may have taken the session down already.
		still, checkErr := c.Has(name)
		if checkErr != nil || still {
			return fmt.Errorf("kill session: %w: %s", err, string(out))
		}
	}
	return nil
}

// CapturePane returns the last N lines of the session's pane.
func (c *Client) CapturePane(name string, lines int) (string, error) {
	// -p prints to stdout, -S -<lines> starts that many lines back.
	out, err := c.run("capture-pane", "-t", name, "-p", "-S", fmt.Sprintf("-%d", lines))
	if err != nil {
		return "", fmt.Errorf("capture pane: %w", err)
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}

// SendKeys sends keys to a session followed by Enter.
func (c *Client) SendKeys(name, keys string) error {
	if out, err := c.run("send-keys", "-t", name, keys, "Enter"); err != nil {
		return fmt.Errorf("send keys: %w: %s", err, string(out))
	}
	return nil
}

// PanePID returns the PID of the session's first pane process.
func (c *Client) PanePID(name string) (int, error) {
	pids := c.panePIDs(name)
	if len(pids) == 0 {
		return 0, fmt.Errorf("no panes for session %s", name)
	}
	return pids[0], nil
}

// AttachArgs returns the argv for attaching a terminal to the session.
func (c *Client) AttachArgs(name string) []string {
	return []string{"tmux", "-S", c.socketPath, "attach-session", "-t", name}
}

func (c *Client) panePIDs(name string) []int {
	out, err := c.run("list-panes", "-t", name, "-F", "#{pane_pid}")
	if err != nil {
		return nil
	}
	var pids []int
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if pid, err := strconv.Atoi(strings.TrimSpace(line)); err == nil && pid > 0 {
			pids = append(pids, pid)
		}
	}
	return pids
}

// run executes a tmux command against the client's socket with a bounded
// deadline and returns its combined output.
func (c *Client) run(args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	full := append([]string{"-S", c.socketPath}, args...)
	cmd := exec.CommandContext(ctx, "tmux", full...) //nolint:gosec // Session names follow the orch-<uuid> convention
	return cmd.CombinedOutput()
}
