package domain

import (
	"context"
	"time"
)

// SessionAPI is the backend that owns active pizzas and their schedules.
// Every call returns the updated session as the server sees it.
type SessionAPI interface {
	Current(ctx context.Context) (*ActiveSession, error)
	Get(ctx context.Context, id string) (*ActiveSession, error)
	History(ctx context.Context) ([]ActiveSession, error)
	CreateFromRecipe(ctx context.Context, recipeID string, targetBakeTime time.Time) (*ActiveSession, error)
	Transition(ctx context.Context, id string, t Transition) (*ActiveSession, error)
	CompleteStep(ctx context.Context, id string, stepNumber int, status StepStatus) (*ActiveSession, error)
	SkipStep(ctx context.Context, id string, stepNumber int) (*ActiveSession, error)
	Reschedule(ctx context.Context, id string, newTargetBakeTime time.Time) (*ActiveSession, error)
	RescheduleByMinutes(ctx context.Context, id string, minutes int) (*ActiveSession, error)
	EnableNotifications(ctx context.Context, id, phone string, reminderMinutesBefore int) (*ActiveSession, error)
	DisableNotifications(ctx context.Context, id string) (*ActiveSession, error)
	CalendarExport(ctx context.Context, id string) ([]byte, error)
}

// Permission is the state of the user-alert capability.
type Permission int

const (
	PermissionDefault Permission = iota
	PermissionGranted
	PermissionDenied
	PermissionUnsupported
)

// String returns a human-readable permission state.
func (p Permission) String() string {
	switch p {
	case PermissionDefault:
		return "default"
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	case PermissionUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Alert is a user-facing notification raised by the timer.
type Alert struct {
	Title string
	Body  string
	Icon  string
}

// AlertGate wraps a permission-gated alert mechanism. Send must never
// fail loudly: it silently skips unless permission is granted and swallows
// delivery errors.
type AlertGate interface {
	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)
	Send(ctx context.Context, alert Alert)
}

// SoundPlayer plays the notification chime. Implementations must not block
// the caller for the duration of playback.
type SoundPlayer interface {
	Chime()
}

// Notifier delivers transient messages (toasts) to the user.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}

// Confirmer asks the user a yes/no question before destructive actions.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}
