// Package timer implements the countdown supervisor that watches the next
// step of an active pizza and fires reminder and due alerts on time.
package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hammamikhairi/pizzatimer/internal/countdown"
	"github.com/hammamikhairi/pizzatimer/internal/domain"
	"github.com/hammamikhairi/pizzatimer/internal/logger"
)

// Alert windows, in whole minutes relative to the next step's scheduled
// time. There is a deliberate gap between the end of the due window and the
// overdue threshold.
const (
	DefaultReminderMinutes = 15
	dueWindowStart         = -2
	overdueBelow           = -5
)

// DefaultIcon is attached to every alert unless overridden.
const DefaultIcon = "🍕"

// Option configures the supervisor.
type Option func(*Supervisor)

// WithTickInterval sets how often the supervisor re-evaluates the schedule.
func WithTickInterval(d time.Duration) Option {
	return func(s *Supervisor) {
		s.tickInterval = d
	}
}

// WithReminderMinutes sets how many minutes ahead of a step the reminder
// fires. Non-positive values keep the default.
func WithReminderMinutes(m int) Option {
	return func(s *Supervisor) {
		if m > 0 {
			s.reminderMinutes = m
		}
	}
}

// WithOnReminder registers a callback invoked once per step identity when
// its reminder fires.
func WithOnReminder(fn func(step domain.ScheduledStep, minutesBefore int)) Option {
	return func(s *Supervisor) {
		s.onReminder = fn
	}
}

// WithOnDue registers a callback invoked once per step identity when the
// step becomes due.
func WithOnDue(fn func(step domain.ScheduledStep)) Option {
	return func(s *Supervisor) {
		s.onDue = fn
	}
}

// WithClock replaces time.Now. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Supervisor) {
		s.now = now
	}
}

// WithIcon sets the icon shown with alerts. Empty keeps the default.
func WithIcon(icon string) Option {
	return func(s *Supervisor) {
		if icon != "" {
			s.icon = icon
		}
	}
}

// Snapshot is the result of one evaluation.
type Snapshot struct {
	Now           time.Time
	NextStep      *domain.ScheduledStep
	HasCountdown  bool // false when there is no next step or it has no scheduled time
	MinutesToNext int
	SecondsToNext int
	Formatted     string
	Overdue       bool
}

// Supervisor runs in the background while a pizza is in progress and turns
// the schedule into reminders, due alerts and a countdown.
type Supervisor struct {
	gate            domain.AlertGate
	sound           domain.SoundPlayer
	log             *logger.Logger
	tickInterval    time.Duration
	reminderMinutes int
	onReminder      func(domain.ScheduledStep, int)
	onDue           func(domain.ScheduledStep)
	now             func() time.Time
	icon            string

	reminders *Tracker
	dues      *Tracker

	// evalMu serialises evaluations: a tick never overlaps another tick or
	// a SetSteps-triggered evaluation. stateMu guards steps and last only,
	// so callbacks may read Snapshot.
	evalMu  sync.Mutex
	stateMu sync.Mutex
	steps   []domain.ScheduledStep
	last    Snapshot

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a timer supervisor with the given dependencies and options.
// sound may be nil.
func New(gate domain.AlertGate, sound domain.SoundPlayer, log *logger.Logger, opts ...Option) *Supervisor {
	s := &Supervisor{
		gate:            gate,
		sound:           sound,
		log:             log,
		tickInterval:    1 * time.Second,
		reminderMinutes: DefaultReminderMinutes,
		now:             time.Now,
		icon:            DefaultIcon,
		reminders:       NewTracker(),
		dues:            NewTracker(),
		last:            Snapshot{Formatted: countdown.Placeholder},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the background tick loop and evaluates the schedule once
// before returning. Alerts fired by that evaluation run on the caller's
// goroutine, with no supervisor lock held.
func (s *Supervisor) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warn("timer supervisor already running")
		return
	}

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true
	go s.loop(childCtx, s.done)
	s.mu.Unlock()

	s.log.Info("timer supervisor started (tick=%s, reminder=%dmin)", s.tickInterval, s.ReminderMinutes())
	s.Evaluate(childCtx, s.now())
}

// Stop shuts down the tick loop and waits for it to exit. The last
// snapshot and the fired-alert records are kept, so a later Start picks up
// where this one left off.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.running = false
	done := s.done
	s.mu.Unlock()

	<-done
	s.log.Info("timer supervisor stopped")
}

// Running reports whether the tick loop is active.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SetSteps replaces the schedule, typically after a refetch. When the
// supervisor is running the new schedule is evaluated right away.
func (s *Supervisor) SetSteps(ctx context.Context, steps []domain.ScheduledStep) {
	s.stateMu.Lock()
	s.steps = domain.SortSteps(steps)
	s.stateMu.Unlock()

	if s.Running() {
		s.Evaluate(ctx, s.now())
	}
}

// Snapshot returns the result of the most recent evaluation.
func (s *Supervisor) Snapshot() Snapshot {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.last
}

// ReminderMinutes returns the configured reminder lead time.
func (s *Supervisor) ReminderMinutes() int {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.reminderMinutes
}

// SetReminderMinutes changes the reminder lead time, e.g. after the user
// edits their SMS settings. Non-positive values are ignored. Reminders
// already fired stay fired.
func (s *Supervisor) SetReminderMinutes(m int) {
	if m <= 0 {
		return
	}
	s.stateMu.Lock()
	s.reminderMinutes = m
	s.stateMu.Unlock()
}

// loop is the main tick loop.
func (s *Supervisor) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Evaluate(ctx, s.now())
		}
	}
}

// Evaluate runs one tick against the given time: picks the next step,
// computes the countdown and fires any alert that is due and has not fired
// for this step identity yet. Callbacks run synchronously and must not call
// Evaluate or SetSteps.
func (s *Supervisor) Evaluate(ctx context.Context, now time.Time) Snapshot {
	s.evalMu.Lock()
	defer s.evalMu.Unlock()

	s.stateMu.Lock()
	steps := s.steps
	reminderMinutes := s.reminderMinutes
	s.stateMu.Unlock()

	snap := Snapshot{Now: now, Formatted: countdown.Placeholder}

	next := domain.NextStep(steps)
	snap.NextStep = next
	if next == nil || next.ScheduledTime == nil {
		s.store(snap)
		return snap
	}

	minutes, seconds := countdown.Split(next.ScheduledTime.Sub(now))
	snap.HasCountdown = true
	snap.MinutesToNext = minutes
	snap.SecondsToNext = seconds
	snap.Formatted = countdown.Format(seconds, true)
	snap.Overdue = minutes < overdueBelow
	s.store(snap)

	key, _ := next.Key()

	if minutes > 0 && minutes <= reminderMinutes && s.reminders.Mark(key) {
		s.log.Debug("reminder for step %d (%s), %d min ahead", next.StepNumber, key, minutes)
		s.send(ctx, domain.Alert{
			Title: fmt.Sprintf("In %d min: %s", minutes, next.Title),
			Body:  bodyOr(next.Description, "Get ready for the next step!"),
			Icon:  s.icon,
		})
		s.chime()
		if s.onReminder != nil {
			s.onReminder(*next, minutes)
		}
	}

	if minutes <= 0 && minutes >= dueWindowStart && s.dues.Mark(key) {
		s.log.Debug("step %d (%s) is due", next.StepNumber, key)
		s.send(ctx, domain.Alert{
			Title: fmt.Sprintf("NOW: %s", next.Title),
			Body:  bodyOr(next.Description, "Time for this step!"),
			Icon:  s.icon,
		})
		s.chime()
		if s.onDue != nil {
			s.onDue(*next)
		}
	}

	return snap
}

func (s *Supervisor) store(snap Snapshot) {
	s.stateMu.Lock()
	s.last = snap
	s.stateMu.Unlock()
}

// send delivers an alert through the gate. A misbehaving gate must not stop
// the countdown.
func (s *Supervisor) send(ctx context.Context, alert domain.Alert) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("supervisor: alert delivery panicked: %v", r)
		}
	}()
	s.gate.Send(ctx, alert)
}

func (s *Supervisor) chime() {
	if s.sound != nil {
		s.sound.Chime()
	}
}

func bodyOr(body, fallback string) string {
	if body == "" {
		return fallback
	}
	return body
}
