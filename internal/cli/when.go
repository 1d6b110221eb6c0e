package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hammamikhairi/pizzatimer/internal/api"
	"github.com/hammamikhairi/pizzatimer/internal/domain"
)

var timeNow = time.Now

// parseClock reads a bake time. A bare "15:04" means the next occurrence
// of that local time after now; anything else goes through the backend
// timestamp formats.
func parseClock(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if hm, err := time.ParseInLocation("15:04", s, time.Local); err == nil {
		local := now.In(time.Local)
		t := time.Date(local.Year(), local.Month(), local.Day(), hm.Hour(), hm.Minute(), 0, 0, time.Local)
		if !t.After(now) {
			t = t.AddDate(0, 0, 1)
		}
		return t, nil
	}
	t, err := api.ParseTimestamp(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bake time %q: use HH:MM or YYYY-MM-DDTHH:MM", s)
	}
	return t, nil
}

// parseShift reads a signed minute count or Go duration into whole minutes.
func parseShift(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n == 0 {
			return 0, fmt.Errorf("shift must not be zero")
		}
		return n, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("shift %q: use minutes or a duration like 1h30m", s)
	}
	minutes := int(d / time.Minute)
	if minutes == 0 {
		return 0, fmt.Errorf("shift must be at least one minute")
	}
	return minutes, nil
}

// parseStepStatus maps the --status flag. Empty lets the server decide.
func parseStepStatus(s string) (domain.StepStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return domain.StepUnknown, nil
	case "early":
		return domain.StepCompletedEarly, nil
	case "on-time", "ontime", "on_time":
		return domain.StepCompleted, nil
	case "late":
		return domain.StepCompletedLate, nil
	default:
		return domain.StepUnknown, fmt.Errorf("status %q: use early, on-time or late", s)
	}
}

func parseStepArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("step %q: expected a positive step number", args[0])
	}
	return n, nil
}
