// Package controller drives the active-pizza watch: it polls the backend,
// keeps the timer supervisor in step with the session, and runs the user's
// actions against the server.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hammamikhairi/pizzatimer/internal/domain"
	"github.com/hammamikhairi/pizzatimer/internal/logger"
	"github.com/hammamikhairi/pizzatimer/internal/storage"
	"github.com/hammamikhairi/pizzatimer/internal/timer"
)

// DefaultPollInterval matches the server-side schedule granularity.
const DefaultPollInterval = 30 * time.Second

// CancelQuestion is asked before cancelling a pizza.
const CancelQuestion = "Cancel this pizza? This cannot be undone."

// Authenticator reports whether usable credentials are stored.
type Authenticator interface {
	Authenticated(now time.Time) bool
}

// SupervisorFactory builds a timer supervisor for one session. The
// controller appends its own callback options.
type SupervisorFactory func(reminderMinutes int, opts ...timer.Option) *timer.Supervisor

// Option configures the controller.
type Option func(*Controller)

// WithPollInterval sets how often the current session is refetched.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.pollInterval = d
	}
}

// WithDefaultReminderMinutes is used when the session carries none.
func WithDefaultReminderMinutes(m int) Option {
	return func(c *Controller) {
		if m > 0 {
			c.defaultReminder = m
		}
	}
}

// WithClock replaces time.Now. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// Controller is the active-pizza page logic. Safe for concurrent use.
type Controller struct {
	api           domain.SessionAPI
	cache         *storage.SessionCache
	notifier      domain.Notifier
	confirmer     domain.Confirmer
	auth          Authenticator
	newSupervisor SupervisorFactory
	log           *logger.Logger

	pollInterval    time.Duration
	defaultReminder int
	now             func() time.Time

	// syncMu serialises fetch-and-reconcile. Poll ticks and user actions
	// both go through it. Alert callbacks may fire while it is held, so the
	// UI must never wait on it.
	syncMu sync.Mutex

	// mu guards the fields below and is never held across a request or a
	// supervisor call.
	mu          sync.Mutex
	runCtx      context.Context // set while Run is active; nil in one-shot use
	sup         *timer.Supervisor
	supID       string
	lastFailure string // last poll failure toasted, cleared by a good fetch
}

// New creates a controller. newSupervisor may be nil for one-shot use, in
// which case no timer runs.
func New(
	api domain.SessionAPI,
	cache *storage.SessionCache,
	notifier domain.Notifier,
	confirmer domain.Confirmer,
	auth Authenticator,
	newSupervisor SupervisorFactory,
	log *logger.Logger,
	opts ...Option,
) *Controller {
	c := &Controller{
		api:             api,
		cache:           cache,
		notifier:        notifier,
		confirmer:       confirmer,
		auth:            auth,
		newSupervisor:   newSupervisor,
		log:             log,
		pollInterval:    DefaultPollInterval,
		defaultReminder: timer.DefaultReminderMinutes,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run loads the current pizza and keeps it fresh until ctx is cancelled.
// Blocks. Returns ErrUnauthenticated without doing anything when the user
// is not logged in, or as soon as the server rejects the credentials.
func (c *Controller) Run(ctx context.Context) error {
	if !c.auth.Authenticated(c.now()) {
		return domain.ErrUnauthenticated
	}

	c.mu.Lock()
	c.runCtx = ctx
	c.mu.Unlock()
	defer c.teardown()

	if _, err := c.refresh(ctx, false); errors.Is(err, domain.ErrUnauthenticated) {
		return err
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	c.log.Info("controller polling every %s", c.pollInterval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := c.refresh(ctx, true); errors.Is(err, domain.ErrUnauthenticated) {
				c.notifyUrgent(ctx, "Your session expired. Run 'pizzatimer login' again.")
				return err
			}
		}
	}
}

// Refresh refetches the current session. A nil session with a nil error
// means the user has no active pizza. On failure the last known session
// stays in place, marked stale, and the failure is toasted.
func (c *Controller) Refresh(ctx context.Context) (*domain.ActiveSession, error) {
	return c.refresh(ctx, false)
}

// refresh is Refresh. A poll repeats a failure toast only when the failure
// changes.
func (c *Controller) refresh(ctx context.Context, poll bool) (*domain.ActiveSession, error) {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	sess, err := c.api.Current(ctx)
	if ctx.Err() != nil {
		// Stopped while the request was in flight.
		return nil, ctx.Err()
	}
	switch {
	case errors.Is(err, domain.ErrNoActiveSession):
		sess = nil
	case errors.Is(err, domain.ErrUnauthenticated):
		return nil, err
	case err != nil:
		c.log.Warn("refreshing current pizza: %v", err)
		if cur, ok := c.cache.Current(); ok {
			c.cache.Invalidate(cur.ID)
		}
		return nil, c.reportFailure(ctx, err, poll)
	}

	c.mu.Lock()
	c.lastFailure = ""
	c.mu.Unlock()

	c.cache.SetCurrent(sess)
	c.reconcile(sess)
	return sess, nil
}

func (c *Controller) reportFailure(ctx context.Context, err error, poll bool) error {
	msg := failure("refresh", err)

	c.mu.Lock()
	repeat := poll && msg == c.lastFailure
	c.lastFailure = msg
	c.mu.Unlock()

	if !repeat {
		c.notifyUrgent(ctx, msg)
	}
	return toasted(err)
}

// Current returns the last fetched session.
func (c *Controller) Current() (*domain.ActiveSession, bool) {
	return c.cache.Current()
}

// Stale reports whether the shown session may be behind the server: a
// change was made or a fetch failed, and no fetch has landed since.
func (c *Controller) Stale() bool {
	return c.cache.Stale()
}

// Timer returns the supervisor's latest snapshot. ok is false when no
// supervisor exists for the current session. Never waits on a fetch.
func (c *Controller) Timer() (timer.Snapshot, bool) {
	sup := c.supervisor()
	if sup == nil {
		return timer.Snapshot{}, false
	}
	return sup.Snapshot(), true
}

// TimerRunning reports whether the countdown is live.
func (c *Controller) TimerRunning() bool {
	sup := c.supervisor()
	return sup != nil && sup.Running()
}

func (c *Controller) supervisor() *timer.Supervisor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sup
}

// reconcile keeps exactly one supervisor per session id, running only while
// the session is in progress. Called with syncMu held; supervisor calls run
// outside mu since they may fire alerts.
func (c *Controller) reconcile(sess *domain.ActiveSession) {
	c.mu.Lock()
	var released *timer.Supervisor
	if c.sup != nil && (sess == nil || sess.ID != c.supID || sess.Status.IsTerminal()) {
		released = c.sup
		c.log.Debug("releasing timer for session %s", c.supID)
		c.sup = nil
		c.supID = ""
	}
	runCtx := c.runCtx
	c.mu.Unlock()

	if released != nil {
		released.Stop()
	}
	if sess == nil || runCtx == nil || c.newSupervisor == nil {
		return
	}

	reminder := sess.ReminderMinutesBefore
	if reminder <= 0 {
		reminder = c.defaultReminder
	}

	switch sess.Status {
	case domain.SessionInProgress:
		c.mu.Lock()
		sup := c.sup
		if sup == nil {
			sup = c.newSupervisor(reminder,
				timer.WithOnReminder(c.onReminder),
				timer.WithOnDue(c.onDue),
			)
			c.sup = sup
			c.supID = sess.ID
			c.log.Debug("created timer for session %s (reminder=%dmin)", sess.ID, reminder)
		}
		c.mu.Unlock()

		sup.SetReminderMinutes(reminder)
		sup.SetSteps(runCtx, sess.Steps)
		if !sup.Running() {
			sup.Start(runCtx)
		}
	case domain.SessionPlanning, domain.SessionPaused:
		if sup := c.supervisor(); sup != nil {
			sup.Stop()
			sup.SetSteps(runCtx, sess.Steps)
		}
	case domain.SessionUnknown, domain.SessionCompleted, domain.SessionCancelled:
	}
}

func (c *Controller) teardown() {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	c.mu.Lock()
	sup := c.sup
	c.sup = nil
	c.supID = ""
	c.runCtx = nil
	c.mu.Unlock()

	if sup != nil {
		sup.Stop()
	}
}

func (c *Controller) onReminder(step domain.ScheduledStep, minutes int) {
	c.notify(context.Background(), fmt.Sprintf("In %d min: %s", minutes, step.Title))
}

func (c *Controller) onDue(step domain.ScheduledStep) {
	c.notify(context.Background(), fmt.Sprintf("Time for: %s!", step.Title))
}

func (c *Controller) notify(ctx context.Context, msg string) {
	if err := c.notifier.Notify(ctx, msg); err != nil {
		c.log.Warn("toast: %v", err)
	}
}

func (c *Controller) notifyUrgent(ctx context.Context, msg string) {
	if err := c.notifier.NotifyUrgent(ctx, msg); err != nil {
		c.log.Warn("toast: %v", err)
	}
}

// toastedError marks an error the user has already seen as a toast.
type toastedError struct {
	err error
}

func (e *toastedError) Error() string { return e.err.Error() }
func (e *toastedError) Unwrap() error { return e.err }

func toasted(err error) error {
	return &toastedError{err: err}
}

// Reported reports whether err was already shown to the user as a toast.
func Reported(err error) bool {
	var te *toastedError
	return errors.As(err, &te)
}
