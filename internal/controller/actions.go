package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hammamikhairi/pizzatimer/internal/api"
	"github.com/hammamikhairi/pizzatimer/internal/domain"
)

// Start begins a planned pizza.
func (c *Controller) Start(ctx context.Context) error {
	return c.transition(ctx, domain.TransitionStart, "Pizza started!")
}

// Pause pauses a pizza in progress.
func (c *Controller) Pause(ctx context.Context) error {
	return c.transition(ctx, domain.TransitionPause, "Pizza paused")
}

// Resume continues a paused pizza.
func (c *Controller) Resume(ctx context.Context) error {
	return c.transition(ctx, domain.TransitionResume, "Pizza resumed")
}

// Cancel asks for confirmation, then cancels the pizza. Declining returns
// ErrCancelled and sends nothing.
func (c *Controller) Cancel(ctx context.Context) error {
	return c.transition(ctx, domain.TransitionCancel, "Pizza cancelled")
}

func (c *Controller) transition(ctx context.Context, t domain.Transition, success string) error {
	sess, err := c.requireSession()
	if err != nil {
		return err
	}
	if !t.Allowed(sess.Status) {
		return fmt.Errorf("cannot %s a pizza that is %s: %w", t, sess.Status, domain.ErrInvalidTransition)
	}

	if t == domain.TransitionCancel {
		ok, err := c.confirmer.Confirm(ctx, CancelQuestion)
		if err != nil {
			return fmt.Errorf("confirming cancel: %w", err)
		}
		if !ok {
			return domain.ErrCancelled
		}
	}

	return c.mutate(ctx, sess.ID, t.String(), success, func(ctx context.Context) error {
		_, err := c.api.Transition(ctx, sess.ID, t)
		return err
	})
}

// CompleteStep marks a step done. stepNumber <= 0 means the next step.
// StepUnknown lets the server decide whether it was early, on time or late.
func (c *Controller) CompleteStep(ctx context.Context, stepNumber int, status domain.StepStatus) error {
	sess, step, err := c.actionableStep(stepNumber)
	if err != nil {
		return err
	}
	return c.mutate(ctx, sess.ID, "complete step", "Step completed!", func(ctx context.Context) error {
		_, err := c.api.CompleteStep(ctx, sess.ID, step.StepNumber, status)
		return err
	})
}

// SkipStep skips a step. stepNumber <= 0 means the next step.
func (c *Controller) SkipStep(ctx context.Context, stepNumber int) error {
	sess, step, err := c.actionableStep(stepNumber)
	if err != nil {
		return err
	}
	return c.mutate(ctx, sess.ID, "skip step", "Step skipped", func(ctx context.Context) error {
		_, err := c.api.SkipStep(ctx, sess.ID, step.StepNumber)
		return err
	})
}

// RescheduleByMinutes shifts the whole schedule; negative moves it earlier.
func (c *Controller) RescheduleByMinutes(ctx context.Context, minutes int) error {
	if minutes == 0 {
		return fmt.Errorf("reschedule by 0 minutes: %w", domain.ErrInvalidTransition)
	}
	sess, err := c.requireOpenSession()
	if err != nil {
		return err
	}
	return c.mutate(ctx, sess.ID, "reschedule", "Schedule moved", func(ctx context.Context) error {
		_, err := c.api.RescheduleByMinutes(ctx, sess.ID, minutes)
		return err
	})
}

// Reschedule moves the schedule to a new target bake time.
func (c *Controller) Reschedule(ctx context.Context, at time.Time) error {
	sess, err := c.requireOpenSession()
	if err != nil {
		return err
	}
	return c.mutate(ctx, sess.ID, "reschedule", "Schedule moved", func(ctx context.Context) error {
		_, err := c.api.Reschedule(ctx, sess.ID, at)
		return err
	})
}

// EnableNotifications turns on SMS reminders. minutes <= 0 keeps the
// session's current lead time.
func (c *Controller) EnableNotifications(ctx context.Context, phone string, minutes int) error {
	if phone == "" {
		return errors.New("phone number is required")
	}
	sess, err := c.requireOpenSession()
	if err != nil {
		return err
	}
	if minutes <= 0 {
		minutes = sess.ReminderMinutesBefore
	}
	return c.mutate(ctx, sess.ID, "enable SMS", "SMS reminders on", func(ctx context.Context) error {
		_, err := c.api.EnableNotifications(ctx, sess.ID, phone, minutes)
		return err
	})
}

// DisableNotifications turns SMS reminders off.
func (c *Controller) DisableNotifications(ctx context.Context) error {
	sess, err := c.requireOpenSession()
	if err != nil {
		return err
	}
	return c.mutate(ctx, sess.ID, "disable SMS", "SMS reminders off", func(ctx context.Context) error {
		_, err := c.api.DisableNotifications(ctx, sess.ID)
		return err
	})
}

// CreateFromRecipe plans a new pizza and makes it current.
func (c *Controller) CreateFromRecipe(ctx context.Context, recipeID string, bakeAt time.Time) (*domain.ActiveSession, error) {
	created, err := c.api.CreateFromRecipe(ctx, recipeID, bakeAt)
	if err != nil {
		c.notifyUrgent(ctx, failure("create pizza", err))
		return nil, toasted(err)
	}
	c.notify(ctx, fmt.Sprintf("Planned %q for %s", created.Name, bakeAt.Format("Mon 15:04")))
	if _, err := c.Refresh(ctx); err != nil {
		c.log.Warn("refetch after create: %v", err)
	}
	return created, nil
}

// History lists the user's pizzas.
func (c *Controller) History(ctx context.Context) ([]domain.ActiveSession, error) {
	return c.api.History(ctx)
}

// CalendarExport returns the iCalendar schedule of a session; an empty id
// means the current one.
func (c *Controller) CalendarExport(ctx context.Context, id string) ([]byte, error) {
	if id == "" {
		sess, err := c.requireSession()
		if err != nil {
			return nil, err
		}
		id = sess.ID
	}
	return c.api.CalendarExport(ctx, id)
}

// mutate runs a server mutation. Success toasts, invalidates and refetches;
// the session stays marked stale if the refetch fails. Failure toasts
// urgently and leaves the cached session alone.
func (c *Controller) mutate(ctx context.Context, id, action, success string, call func(context.Context) error) error {
	if err := call(ctx); err != nil {
		c.log.Warn("%s on %s failed: %v", action, id, err)
		c.notifyUrgent(ctx, failure(action, err))
		return toasted(err)
	}

	c.notify(ctx, success)
	c.cache.Invalidate(id)
	if _, err := c.Refresh(ctx); err != nil {
		c.log.Warn("refetch after %s: %v", action, err)
	}
	return nil
}

func (c *Controller) requireSession() (*domain.ActiveSession, error) {
	sess, ok := c.cache.Current()
	if !ok {
		return nil, domain.ErrNoActiveSession
	}
	return sess, nil
}

func (c *Controller) requireOpenSession() (*domain.ActiveSession, error) {
	sess, err := c.requireSession()
	if err != nil {
		return nil, err
	}
	if sess.Status.IsTerminal() {
		return nil, fmt.Errorf("pizza is %s: %w", sess.Status, domain.ErrInvalidTransition)
	}
	return sess, nil
}

func (c *Controller) actionableStep(stepNumber int) (*domain.ActiveSession, *domain.ScheduledStep, error) {
	sess, err := c.requireOpenSession()
	if err != nil {
		return nil, nil, err
	}

	if stepNumber <= 0 {
		next := sess.NextStep()
		if next == nil {
			return nil, nil, fmt.Errorf("no step left: %w", domain.ErrStepNotActionable)
		}
		return sess, next, nil
	}

	step, ok := sess.Step(stepNumber)
	if !ok {
		return nil, nil, fmt.Errorf("step %d: %w", stepNumber, domain.ErrNotFound)
	}
	if !step.Status.IsActionable() {
		return nil, nil, fmt.Errorf("step %d is %s: %w", stepNumber, step.Status, domain.ErrStepNotActionable)
	}
	return sess, step, nil
}

// failure renders a toast for a failed action, preferring the server's
// message.
func failure(action string, err error) string {
	var he *api.HTTPError
	if errors.As(err, &he) {
		return fmt.Sprintf("Could not %s: %s", action, he.Message)
	}
	if errors.Is(err, domain.ErrUnauthenticated) {
		return fmt.Sprintf("Could not %s: please log in again", action)
	}
	return fmt.Sprintf("Could not %s: %v", action, err)
}
