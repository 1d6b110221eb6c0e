// Package domain defines the core types and interfaces for the pizza timer.
// All other packages depend on domain; domain depends on nothing.
package domain

import (
	"fmt"
	"sort"
	"time"
)

// ActiveSession is one pizza being made: the server-owned aggregate the
// watch page operates on. The client never mutates it; it refetches the
// authoritative copy after every transition.
type ActiveSession struct {
	ID                      string
	UserID                  string
	RecipeID                string
	Name                    string
	PizzaStyle              string
	PizzaStyleName          string
	NumberOfPizzas          int
	TargetBakeTime          *time.Time
	AdjustedBakeTime        *time.Time
	Steps                   []ScheduledStep
	Status                  SessionStatus
	Notes                   string
	SMSNotificationsEnabled bool
	NotificationPhone       string
	ReminderMinutesBefore   int
	CompletionPercentage    float64
	CreatedAt               *time.Time
	LastUpdatedAt           *time.Time
}

// SortedSteps returns a copy of the steps in ascending step-number order.
func (s *ActiveSession) SortedSteps() []ScheduledStep {
	return SortSteps(s.Steps)
}

// NextStep returns the first step, by ascending step number, that is still
// pending or in progress. Returns nil when every step is terminal.
func (s *ActiveSession) NextStep() *ScheduledStep {
	return NextStep(s.Steps)
}

// Step looks a step up by its number.
func (s *ActiveSession) Step(number int) (*ScheduledStep, bool) {
	for i := range s.Steps {
		if s.Steps[i].StepNumber == number {
			return &s.Steps[i], true
		}
	}
	return nil, false
}

// SessionStatus tracks the lifecycle of an active pizza.
type SessionStatus int

const (
	SessionUnknown SessionStatus = iota
	SessionPlanning
	SessionInProgress
	SessionPaused
	SessionCompleted
	SessionCancelled
)

var sessionStatusNames = map[SessionStatus]string{
	SessionUnknown:    "UNKNOWN",
	SessionPlanning:   "PLANNING",
	SessionInProgress: "IN_PROGRESS",
	SessionPaused:     "PAUSED",
	SessionCompleted:  "COMPLETED",
	SessionCancelled:  "CANCELLED",
}

// String returns the wire name of the status.
func (s SessionStatus) String() string {
	if name, ok := sessionStatusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsTerminal reports whether no further transition is possible.
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionCompleted, SessionCancelled:
		return true
	case SessionUnknown, SessionPlanning, SessionInProgress, SessionPaused:
		return false
	default:
		return false
	}
}

// ParseSessionStatus converts a wire name into a SessionStatus.
func ParseSessionStatus(name string) SessionStatus {
	for status, n := range sessionStatusNames {
		if n == name {
			return status
		}
	}
	return SessionUnknown
}

// MarshalText implements encoding.TextMarshaler.
func (s SessionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unrecognised names
// decode to SessionUnknown instead of failing the whole response.
func (s *SessionStatus) UnmarshalText(b []byte) error {
	*s = ParseSessionStatus(string(b))
	return nil
}

// Transition is a user-initiated change of session status.
type Transition int

const (
	TransitionStart Transition = iota
	TransitionPause
	TransitionResume
	TransitionCancel
)

// String returns the endpoint verb for the transition.
func (t Transition) String() string {
	switch t {
	case TransitionStart:
		return "start"
	case TransitionPause:
		return "pause"
	case TransitionResume:
		return "resume"
	case TransitionCancel:
		return "cancel"
	default:
		return fmt.Sprintf("transition(%d)", int(t))
	}
}

// Allowed reports whether the transition is offered from status s:
// PLANNING -start-> IN_PROGRESS, IN_PROGRESS -pause-> PAUSED,
// PAUSED -resume-> IN_PROGRESS, any non-terminal -cancel-> CANCELLED.
func (t Transition) Allowed(s SessionStatus) bool {
	switch t {
	case TransitionStart:
		return s == SessionPlanning
	case TransitionPause:
		return s == SessionInProgress
	case TransitionResume:
		return s == SessionPaused
	case TransitionCancel:
		return s == SessionPlanning || s == SessionInProgress || s == SessionPaused
	default:
		return false
	}
}

// SortSteps returns a copy of steps ordered by step number.
func SortSteps(steps []ScheduledStep) []ScheduledStep {
	out := make([]ScheduledStep, len(steps))
	copy(out, steps)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StepNumber < out[j].StepNumber
	})
	return out
}

// NextStep returns the first actionable step in ascending step-number
// order, or nil.
func NextStep(steps []ScheduledStep) *ScheduledStep {
	sorted := SortSteps(steps)
	for i := range sorted {
		if sorted[i].Status.IsActionable() {
			step := sorted[i]
			return &step
		}
	}
	return nil
}
