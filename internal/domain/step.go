package domain

import (
	"fmt"
	"time"
)

// ScheduledStep is one unit of the fermentation/bake plan.
type ScheduledStep struct {
	StepNumber       int
	Type             string
	TypeName         string
	Title            string
	Description      string
	ScheduledTime    *time.Time
	ActualTime       *time.Time
	DurationMinutes  int
	Temperature      float64
	Status           StepStatus
	NotificationSent bool
	Note             string
}

// Key returns the step's identity for alert deduplication. ok is false
// when the step has no scheduled time.
func (s *ScheduledStep) Key() (StepKey, bool) {
	if s.ScheduledTime == nil {
		return StepKey{}, false
	}
	return StepKey{StepNumber: s.StepNumber, ScheduledUnixMilli: s.ScheduledTime.UnixMilli()}, true
}

// StepKey identifies a step at a given scheduled time. Rescheduling a step
// changes its key.
type StepKey struct {
	StepNumber         int
	ScheduledUnixMilli int64
}

// String returns the key as "number@unix-millis".
func (k StepKey) String() string {
	return fmt.Sprintf("%d@%d", k.StepNumber, k.ScheduledUnixMilli)
}

// StepStatus tracks the state of a single scheduled step.
type StepStatus int

const (
	StepUnknown StepStatus = iota
	StepPending
	StepInProgress
	StepCompleted
	StepCompletedEarly
	StepCompletedLate
	StepSkipped
)

var stepStatusNames = map[StepStatus]string{
	StepUnknown:        "UNKNOWN",
	StepPending:        "PENDING",
	StepInProgress:     "IN_PROGRESS",
	StepCompleted:      "COMPLETED",
	StepCompletedEarly: "COMPLETED_EARLY",
	StepCompletedLate:  "COMPLETED_LATE",
	StepSkipped:        "SKIPPED",
}

// String returns the wire name of the status.
func (s StepStatus) String() string {
	if name, ok := stepStatusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsActionable reports whether the step can still be completed or skipped.
func (s StepStatus) IsActionable() bool {
	switch s {
	case StepPending, StepInProgress:
		return true
	case StepUnknown, StepCompleted, StepCompletedEarly, StepCompletedLate, StepSkipped:
		return false
	default:
		return false
	}
}

// IsTerminal reports whether the step is finished one way or another.
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StepCompleted, StepCompletedEarly, StepCompletedLate, StepSkipped:
		return true
	case StepUnknown, StepPending, StepInProgress:
		return false
	default:
		return false
	}
}

// ParseStepStatus converts a wire name into a StepStatus.
func ParseStepStatus(name string) StepStatus {
	for status, n := range stepStatusNames {
		if n == name {
			return status
		}
	}
	return StepUnknown
}

// MarshalText implements encoding.TextMarshaler.
func (s StepStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *StepStatus) UnmarshalText(b []byte) error {
	*s = ParseStepStatus(string(b))
	return nil
}
