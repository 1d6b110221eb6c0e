package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/hammamikhairi/pizzatimer/internal/domain"
)

// Compile-time interface check.
var _ domain.SessionAPI = (*Client)(nil)

// Current returns the user's current active pizza, or ErrNoActiveSession.
func (c *Client) Current(ctx context.Context) (*domain.ActiveSession, error) {
	resp, err := c.do(ctx, http.MethodGet, activePizzaPath+"/current", nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() == http.StatusNoContent || len(resp.Body()) == 0 {
		return nil, domain.ErrNoActiveSession
	}
	return decodeSession(resp)
}

// Get fetches one session by id.
func (c *Client) Get(ctx context.Context, id string) (*domain.ActiveSession, error) {
	return c.sessionCall(ctx, http.MethodGet, sessionPath(id, ""), nil)
}

// History returns the user's past and present sessions, newest first as the
// server orders them.
func (c *Client) History(ctx context.Context) ([]domain.ActiveSession, error) {
	resp, err := c.do(ctx, http.MethodGet, activePizzaPath+"/history", nil)
	if err != nil {
		return nil, err
	}

	var dtos []sessionDTO
	if err := json.Unmarshal(resp.Body(), &dtos); err != nil {
		return nil, fmt.Errorf("decoding history: %w", err)
	}
	out := make([]domain.ActiveSession, 0, len(dtos))
	for i := range dtos {
		out = append(out, *dtos[i].toDomain())
	}
	return out, nil
}

// CreateFromRecipe plans a new active pizza from a saved recipe.
func (c *Client) CreateFromRecipe(ctx context.Context, recipeID string, targetBakeTime time.Time) (*domain.ActiveSession, error) {
	path := activePizzaPath + "/from-recipe/" + url.PathEscape(recipeID)
	return c.sessionCall(ctx, http.MethodPost, path, func(r *resty.Request) {
		r.SetBody(targetBakeTimeRequest{TargetBakeTime: Timestamp{targetBakeTime}})
	})
}

// Transition starts, pauses, resumes or cancels a session.
func (c *Client) Transition(ctx context.Context, id string, t domain.Transition) (*domain.ActiveSession, error) {
	return c.sessionCall(ctx, http.MethodPost, sessionPath(id, t.String()), nil)
}

// CompleteStep marks a step done. StepUnknown lets the server pick between
// on time, early and late.
func (c *Client) CompleteStep(ctx context.Context, id string, stepNumber int, status domain.StepStatus) (*domain.ActiveSession, error) {
	path := sessionPath(id, "steps/"+strconv.Itoa(stepNumber)+"/complete")
	body := completeStepRequest{}
	if status != domain.StepUnknown {
		body.Status = status.String()
	}
	return c.sessionCall(ctx, http.MethodPost, path, func(r *resty.Request) {
		r.SetBody(body)
	})
}

// SkipStep marks a step skipped.
func (c *Client) SkipStep(ctx context.Context, id string, stepNumber int) (*domain.ActiveSession, error) {
	return c.sessionCall(ctx, http.MethodPost, sessionPath(id, "steps/"+strconv.Itoa(stepNumber)+"/skip"), nil)
}

// Reschedule moves the whole plan to a new bake time.
func (c *Client) Reschedule(ctx context.Context, id string, newTargetBakeTime time.Time) (*domain.ActiveSession, error) {
	return c.sessionCall(ctx, http.MethodPost, sessionPath(id, "reschedule"), func(r *resty.Request) {
		r.SetBody(rescheduleRequest{NewTargetBakeTime: Timestamp{newTargetBakeTime}})
	})
}

// RescheduleByMinutes shifts the plan; negative minutes move it earlier.
func (c *Client) RescheduleByMinutes(ctx context.Context, id string, minutes int) (*domain.ActiveSession, error) {
	return c.sessionCall(ctx, http.MethodPost, sessionPath(id, "reschedule-by-minutes"), func(r *resty.Request) {
		r.SetQueryParam("minutes", strconv.Itoa(minutes))
	})
}

// EnableNotifications turns on server-side SMS reminders.
func (c *Client) EnableNotifications(ctx context.Context, id, phone string, reminderMinutesBefore int) (*domain.ActiveSession, error) {
	return c.sessionCall(ctx, http.MethodPost, sessionPath(id, "notifications/enable"), func(r *resty.Request) {
		r.SetBody(enableNotificationsRequest{PhoneNumber: phone, ReminderMinutesBefore: reminderMinutesBefore})
	})
}

// DisableNotifications turns SMS reminders off.
func (c *Client) DisableNotifications(ctx context.Context, id string) (*domain.ActiveSession, error) {
	return c.sessionCall(ctx, http.MethodPost, sessionPath(id, "notifications/disable"), nil)
}

// CalendarExport downloads the schedule as an iCalendar document.
func (c *Client) CalendarExport(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, sessionPath(id, "calendar.ics"), func(r *resty.Request) {
		r.SetHeader("Accept", "text/calendar")
	})
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

func (c *Client) sessionCall(ctx context.Context, method, path string, build func(*resty.Request)) (*domain.ActiveSession, error) {
	resp, err := c.do(ctx, method, path, build)
	if err != nil {
		return nil, err
	}
	return decodeSession(resp)
}

func decodeSession(resp *resty.Response) (*domain.ActiveSession, error) {
	var dto sessionDTO
	if err := json.Unmarshal(resp.Body(), &dto); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return dto.toDomain(), nil
}

func sessionPath(id, action string) string {
	p := activePizzaPath + "/" + url.PathEscape(id)
	if action != "" {
		p += "/" + action
	}
	return p
}
