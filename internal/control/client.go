package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/Paarth01/Focus-Mode/internal/domain"
)

// ErrNotRunning means nothing answered on the control socket.
var ErrNotRunning = errors.New("daemon not running")

const (
	requestTimeout = 3 * time.Second
	stopPollEvery  = 100 * time.Millisecond
)

// Client talks to a running daemon over its unix socket.
type Client struct {
	socketPath string
	http       *http.Client
}

// NewClient creates a client for the given socket path. No connection is
// made until the first request.
func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		http: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", socketPath)
				},
			},
		},
	}
}

// Alive reports whether a daemon answers on the socket.
func (c *Client) Alive(ctx context.Context) bool {
	_, err := c.Ping(ctx)
	return err == nil
}

// Ping returns the daemon's version and PID, or ErrNotRunning.
func (c *Client) Ping(ctx context.Context) (PingResponse, error) {
	var pr PingResponse
	if err := c.get(ctx, "/v1/ping", &pr); err != nil {
		return PingResponse{}, err
	}
	return pr, nil
}

// Status fetches the daemon's live status.
func (c *Client) Status(ctx context.Context) (domain.Status, error) {
	var st domain.Status
	if err := c.get(ctx, "/v1/status", &st); err != nil {
		return domain.Status{}, err
	}
	return st, nil
}

// Stop asks the daemon to shut down and waits until the socket goes
// quiet, so callers can trust that cleanup ran.
func (c *Client) Stop(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://focusmoded/v1/stop", nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return ErrNotRunning
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stop rejected: %s", resp.Status)
	}

	return c.waitStopped(ctx)
}

// waitStopped polls the socket until the daemon is gone or the context
// expires.
func (c *Client) waitStopped(ctx context.Context) error {
	t := time.NewTicker(stopPollEvery)
	defer t.Stop()

	for {
		if !c.Alive(ctx) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("daemon did not stop: %w", ctx.Err())
		case <-t.C:
		}
	}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://focusmoded"+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// A missing socket file or a refused connection both mean no
		// daemon; everything else is still not actionable for callers.
		return ErrNotRunning
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("control request %s: %s", path, resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// VersionSkew reports a human-readable warning when the CLI and daemon
// were built from different minor versions. Unparsable versions (dev
// builds) produce no warning.
func VersionSkew(cliVersion, daemonVersion string) (string, bool) {
	cv, err := semver.NewVersion(cliVersion)
	if err != nil {
		return "", false
	}
	dv, err := semver.NewVersion(daemonVersion)
	if err != nil {
		return "", false
	}

	if cv.Major() != dv.Major() || cv.Minor() != dv.Minor() {
		return fmt.Sprintf("daemon is v%s but CLI is v%s, restart the daemon after upgrading", dv, cv), true
	}
	return "", false
}
