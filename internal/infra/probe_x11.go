package infra

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Paarth01/Focus-Mode/internal/domain"
)

// X11Probe resolves the focused window's WM_CLASS via xdotool and xprop.
type X11Probe struct {
	runner  CommandRunner
	timeout time.Duration
	logger  *zap.Logger
}

// NewX11Probe creates the active-window probe. Each probe call is bounded
// by timeout so a hung X server cannot stall the poll loop.
func NewX11Probe(runner CommandRunner, timeout time.Duration, logger *zap.Logger) *X11Probe {
	return &X11Probe{runner: runner, timeout: timeout, logger: logger}
}

// Name returns a short identifier for logs.
func (p *X11Probe) Name() string { return "x11" }

// Probe returns the lowercase class of the focused window.
func (p *X11Probe) Probe(ctx context.Context) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	winID, err := p.runner.Output(ctx, "xdotool", "getactivewindow")
	if err != nil {
		p.logger.Debug("xdotool failed", zap.Error(err))
		return "", false
	}
	id := strings.TrimSpace(string(winID))
	if id == "" {
		return "", false
	}

	out, err := p.runner.Output(ctx, "xprop", "-id", id, "WM_CLASS")
	if err != nil {
		p.logger.Debug("xprop failed", zap.String("window", id), zap.Error(err))
		return "", false
	}

	subject := parseWMClass(string(out))
	if subject == "" {
		return "", false
	}
	return subject, true
}

// parseWMClass extracts the class name from xprop output:
//
//	WM_CLASS(STRING) = "navigator", "Firefox"
//
// The class is the last quoted token, lowercased.
func parseWMClass(out string) string {
	var tokens []string
	rest := out
	for {
		i := strings.IndexByte(rest, '"')
		if i < 0 {
			break
		}
		rest = rest[i+1:]
		j := strings.IndexByte(rest, '"')
		if j < 0 {
			break
		}
		tokens = append(tokens, rest[:j])
		rest = rest[j+1:]
	}
	if len(tokens) == 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(tokens[len(tokens)-1]))
}

// Ensure X11Probe implements domain.WindowProbe.
var _ domain.WindowProbe = (*X11Probe)(nil)
