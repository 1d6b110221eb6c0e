// Package alert provides the permission-gated alert mechanisms used by the
// timer: an in-terminal banner gate, a no-op gate and the chime player.
package alert

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/x/term"

	"github.com/hammamikhairi/pizzatimer/internal/domain"
	"github.com/hammamikhairi/pizzatimer/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.AlertGate = (*TerminalGate)(nil)
	_ domain.AlertGate = (*NoopGate)(nil)
)

// DefaultDismissAfter is how long a banner stays up without user action.
const DefaultDismissAfter = 30 * time.Second

// PermissionQuestion is asked once when the user enables alerts.
const PermissionQuestion = "Show pizza step alerts in this terminal?"

// BannerSink renders alerts. ShowAlert replaces whatever banner is up.
type BannerSink interface {
	ShowAlert(a domain.Alert) error
	ClearAlert()
}

// GateOption configures a TerminalGate.
type GateOption func(*TerminalGate)

// WithInteractive overrides TTY detection.
func WithInteractive(interactive bool) GateOption {
	return func(g *TerminalGate) {
		g.interactive = interactive
	}
}

// WithDismissAfter sets the auto-dismiss delay.
func WithDismissAfter(d time.Duration) GateOption {
	return func(g *TerminalGate) {
		g.dismissAfter = d
	}
}

// TerminalGate shows alerts as a banner in the watch UI once the user has
// allowed it. The permission lives for the lifetime of the process.
type TerminalGate struct {
	confirmer    domain.Confirmer
	sink         BannerSink
	log          *logger.Logger
	interactive  bool
	dismissAfter time.Duration

	mu         sync.Mutex
	permission domain.Permission
	current    *domain.Alert
	seq        uint64
	timer      *time.Timer
}

// NewTerminalGate creates a gate bound to the given sink. Without a TTY on
// stdout the gate reports unsupported.
func NewTerminalGate(confirmer domain.Confirmer, sink BannerSink, log *logger.Logger, opts ...GateOption) *TerminalGate {
	g := &TerminalGate{
		confirmer:    confirmer,
		sink:         sink,
		log:          log,
		interactive:  term.IsTerminal(os.Stdout.Fd()),
		dismissAfter: DefaultDismissAfter,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.interactive {
		g.permission = domain.PermissionDefault
	} else {
		g.permission = domain.PermissionUnsupported
	}
	return g
}

// Permission returns the current permission state.
func (g *TerminalGate) Permission() domain.Permission {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.permission
}

// RequestPermission asks the user once. A decided permission is returned as
// is, matching browser semantics where a denial sticks.
func (g *TerminalGate) RequestPermission(ctx context.Context) (domain.Permission, error) {
	g.mu.Lock()
	perm := g.permission
	g.mu.Unlock()

	switch perm {
	case domain.PermissionUnsupported:
		return perm, domain.ErrUnsupported
	case domain.PermissionGranted, domain.PermissionDenied:
		return perm, nil
	}

	ok, err := g.confirmer.Confirm(ctx, PermissionQuestion)
	if err != nil {
		g.log.Warn("alert permission request failed: %v", err)
		return domain.PermissionDefault, fmt.Errorf("requesting alert permission: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if ok {
		g.permission = domain.PermissionGranted
	} else {
		g.permission = domain.PermissionDenied
	}
	g.log.Info("alert permission: %s", g.permission)
	return g.permission, nil
}

// Send shows the alert when permission is granted and does nothing
// otherwise. Delivery failures are logged and swallowed.
func (g *TerminalGate) Send(_ context.Context, a domain.Alert) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error("alert: banner sink panicked: %v", r)
		}
	}()

	g.mu.Lock()
	if g.permission != domain.PermissionGranted {
		perm := g.permission
		g.mu.Unlock()
		g.log.Debug("alert skipped (permission=%s): %s", perm, a.Title)
		return
	}

	g.seq++
	seq := g.seq
	shown := a
	g.current = &shown
	if g.timer != nil {
		g.timer.Stop()
	}
	g.timer = time.AfterFunc(g.dismissAfter, func() { g.expire(seq) })
	g.mu.Unlock()

	if err := g.sink.ShowAlert(a); err != nil {
		g.log.Warn("alert: showing %q: %v", a.Title, err)
	}
}

// Current returns the banner on screen, if any.
func (g *TerminalGate) Current() (domain.Alert, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == nil {
		return domain.Alert{}, false
	}
	return *g.current, true
}

// Dismiss closes the banner on screen. It reports whether there was one.
func (g *TerminalGate) Dismiss() bool {
	g.mu.Lock()
	had := g.current != nil
	g.clearLocked()
	g.mu.Unlock()

	if had {
		g.sink.ClearAlert()
	}
	return had
}

// Close stops the pending auto-dismiss.
func (g *TerminalGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

// expire clears the banner unless a newer alert replaced it.
func (g *TerminalGate) expire(seq uint64) {
	g.mu.Lock()
	if seq != g.seq || g.current == nil {
		g.mu.Unlock()
		return
	}
	g.clearLocked()
	g.mu.Unlock()

	g.log.Debug("alert auto-dismissed")
	g.sink.ClearAlert()
}

func (g *TerminalGate) clearLocked() {
	g.current = nil
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

// NoopGate never shows anything. Used when alerts are turned off.
type NoopGate struct {
	log *logger.Logger
}

// NewNoopGate creates a gate that reports unsupported.
func NewNoopGate(log *logger.Logger) *NoopGate {
	return &NoopGate{log: log}
}

func (n *NoopGate) Permission() domain.Permission { return domain.PermissionUnsupported }

func (n *NoopGate) RequestPermission(context.Context) (domain.Permission, error) {
	return domain.PermissionUnsupported, domain.ErrUnsupported
}

func (n *NoopGate) Send(_ context.Context, a domain.Alert) {
	n.log.Debug("alert no-op: would show %q", a.Title)
}

// Dismiss reports false; nothing is ever shown.
func (n *NoopGate) Dismiss() bool { return false }

// Close is a no-op.
func (n *NoopGate) Close() {}
