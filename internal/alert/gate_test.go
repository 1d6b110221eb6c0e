package alert

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hammamikhairi/pizzatimer/internal/domain"
	"github.com/hammamikhairi/pizzatimer/internal/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubConfirmer struct {
	answer bool
	err    error
	asked  int
}

func (c *stubConfirmer) Confirm(context.Context, string) (bool, error) {
	c.asked++
	return c.answer, c.err
}

type recordingSink struct {
	mu      sync.Mutex
	shown   []string
	cleared int
	failOn  string
}

func (s *recordingSink) ShowAlert(a domain.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.Title == s.failOn {
		return errors.New("render failed")
	}
	s.shown = append(s.shown, a.Title)
	return nil
}

func (s *recordingSink) ClearAlert() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared++
}

func (s *recordingSink) clearedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleared
}

func quietLog() *logger.Logger { return logger.New(logger.LevelOff, nil) }

func TestTerminalGateStartsInDefault(t *testing.T) {
	sink := &recordingSink{}
	g := NewTerminalGate(&stubConfirmer{}, sink, quietLog(), WithInteractive(true))
	defer g.Close()

	assert.Equal(t, domain.PermissionDefault, g.Permission())

	g.Send(context.Background(), domain.Alert{Title: "NOW: Bake"})
	assert.Empty(t, sink.shown, "no banner before permission is granted")
}

func TestTerminalGateRequestPermission(t *testing.T) {
	ctx := context.Background()

	t.Run("granted", func(t *testing.T) {
		c := &stubConfirmer{answer: true}
		g := NewTerminalGate(c, &recordingSink{}, quietLog(), WithInteractive(true))
		defer g.Close()

		perm, err := g.RequestPermission(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.PermissionGranted, perm)

		// Already decided: the user is not asked again.
		perm, err = g.RequestPermission(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.PermissionGranted, perm)
		assert.Equal(t, 1, c.asked)
	})

	t.Run("denied sticks", func(t *testing.T) {
		c := &stubConfirmer{answer: false}
		g := NewTerminalGate(c, &recordingSink{}, quietLog(), WithInteractive(true))
		defer g.Close()

		perm, err := g.RequestPermission(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.PermissionDenied, perm)

		c.answer = true
		perm, _ = g.RequestPermission(ctx)
		assert.Equal(t, domain.PermissionDenied, perm)
	})

	t.Run("prompt error keeps default", func(t *testing.T) {
		c := &stubConfirmer{err: errors.New("stdin closed")}
		g := NewTerminalGate(c, &recordingSink{}, quietLog(), WithInteractive(true))
		defer g.Close()

		perm, err := g.RequestPermission(ctx)
		require.Error(t, err)
		assert.Equal(t, domain.PermissionDefault, perm)
		assert.Equal(t, domain.PermissionDefault, g.Permission())
	})

	t.Run("unsupported without a terminal", func(t *testing.T) {
		c := &stubConfirmer{answer: true}
		g := NewTerminalGate(c, &recordingSink{}, quietLog(), WithInteractive(false))
		defer g.Close()

		perm, err := g.RequestPermission(ctx)
		assert.ErrorIs(t, err, domain.ErrUnsupported)
		assert.Equal(t, domain.PermissionUnsupported, perm)
		assert.Zero(t, c.asked)
	})
}

func grantedGate(t *testing.T, sink *recordingSink, opts ...GateOption) *TerminalGate {
	t.Helper()
	opts = append([]GateOption{WithInteractive(true)}, opts...)
	g := NewTerminalGate(&stubConfirmer{answer: true}, sink, quietLog(), opts...)
	_, err := g.RequestPermission(context.Background())
	require.NoError(t, err)
	t.Cleanup(g.Close)
	return g
}

func TestTerminalGateSendAndDismiss(t *testing.T) {
	sink := &recordingSink{}
	g := grantedGate(t, sink)

	g.Send(context.Background(), domain.Alert{Title: "In 10 min: Stretch", Body: "Get ready"})
	cur, ok := g.Current()
	require.True(t, ok)
	assert.Equal(t, "In 10 min: Stretch", cur.Title)
	assert.Equal(t, []string{"In 10 min: Stretch"}, sink.shown)

	assert.True(t, g.Dismiss())
	_, ok = g.Current()
	assert.False(t, ok)
	assert.Equal(t, 1, sink.clearedCount())

	assert.False(t, g.Dismiss(), "nothing left to dismiss")
}

func TestTerminalGateAutoDismiss(t *testing.T) {
	sink := &recordingSink{}
	g := grantedGate(t, sink, WithDismissAfter(20*time.Millisecond))

	g.Send(context.Background(), domain.Alert{Title: "NOW: Bake"})
	require.Eventually(t, func() bool { return sink.clearedCount() == 1 }, time.Second, 5*time.Millisecond)

	_, ok := g.Current()
	assert.False(t, ok)
}

func TestTerminalGateNewerAlertRestartsDismissTimer(t *testing.T) {
	sink := &recordingSink{}
	g := grantedGate(t, sink, WithDismissAfter(50*time.Millisecond))
	ctx := context.Background()

	g.Send(ctx, domain.Alert{Title: "first"})
	time.Sleep(30 * time.Millisecond)
	g.Send(ctx, domain.Alert{Title: "second"})
	time.Sleep(30 * time.Millisecond)

	cur, ok := g.Current()
	require.True(t, ok, "second alert gets its own full window")
	assert.Equal(t, "second", cur.Title)
	assert.Zero(t, sink.clearedCount())
}

func TestTerminalGateSwallowsSinkErrors(t *testing.T) {
	sink := &recordingSink{failOn: "broken"}
	g := grantedGate(t, sink)

	assert.NotPanics(t, func() {
		g.Send(context.Background(), domain.Alert{Title: "broken"})
	})
}

func TestNoopGate(t *testing.T) {
	g := NewNoopGate(quietLog())
	assert.Equal(t, domain.PermissionUnsupported, g.Permission())

	perm, err := g.RequestPermission(context.Background())
	assert.Equal(t, domain.PermissionUnsupported, perm)
	assert.ErrorIs(t, err, domain.ErrUnsupported)

	assert.NotPanics(t, func() { g.Send(context.Background(), domain.Alert{Title: "x"}) })
	assert.False(t, g.Dismiss())
}
