package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/pizzatimer/internal/auth"
	"github.com/hammamikhairi/pizzatimer/internal/domain"
	"github.com/hammamikhairi/pizzatimer/internal/logger"
)

const sessionJSON = `{
  "id": "pz-42",
  "userId": "u-1",
  "name": "Saturday Neapolitan",
  "pizzaStyle": "NEAPOLITAN",
  "numberOfPizzas": 4,
  "targetBakeTime": "2026-10-19T19:00:00",
  "status": "IN_PROGRESS",
  "reminderMinutesBefore": 10,
  "completionPercentage": 37.5,
  "steps": [
    {"stepNumber": 2, "title": "Ball the dough", "scheduledTime": "2026-10-19T15:00:00", "status": "PENDING"},
    {"stepNumber": 1, "title": "Mix", "scheduledTime": "2026-10-19T09:00:00.123", "actualTime": "2026-10-19T09:04:00", "status": "COMPLETED_LATE"},
    {"stepNumber": 3, "title": "Bake", "scheduledTime": null, "status": "SOMETHING_NEW"}
  ]
}`

func newStore(t *testing.T, creds auth.Credentials) *auth.Store {
	t.Helper()
	s := auth.NewStore(afero.NewMemMapFs(), "/state/credentials.json", logger.New(logger.LevelOff, nil))
	if creds.AccessToken != "" {
		require.NoError(t, s.Save(creds))
	}
	return s
}

func newClient(t *testing.T, h http.Handler, creds auth.Credentials) (*Client, *auth.Store) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	store := newStore(t, creds)
	return New(srv.URL, store, logger.New(logger.LevelOff, nil)), store
}

func TestCurrentNoContent(t *testing.T) {
	var gotAuth, gotReqID string
	c, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/active-pizza/current", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusNoContent)
	}), auth.Credentials{AccessToken: "tok-1"})

	_, err := c.Current(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.NotEmpty(t, gotReqID)
}

func TestCurrentDecodesSession(t *testing.T) {
	c, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, sessionJSON)
	}), auth.Credentials{AccessToken: "tok"})

	s, err := c.Current(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "pz-42", s.ID)
	assert.Equal(t, domain.SessionInProgress, s.Status)
	assert.Equal(t, 10, s.ReminderMinutesBefore)
	assert.InDelta(t, 37.5, s.CompletionPercentage, 0.001)
	require.NotNil(t, s.TargetBakeTime)
	assert.True(t, time.Date(2026, 10, 19, 19, 0, 0, 0, time.Local).Equal(*s.TargetBakeTime))
	assert.Nil(t, s.AdjustedBakeTime)

	require.Len(t, s.Steps, 3)
	assert.Equal(t, domain.StepCompletedLate, s.Steps[1].Status)
	require.NotNil(t, s.Steps[1].ActualTime)
	assert.Nil(t, s.Steps[2].ScheduledTime)
	assert.Equal(t, domain.StepUnknown, s.Steps[2].Status, "unknown statuses don't fail the decode")

	next := s.NextStep()
	require.NotNil(t, next)
	assert.Equal(t, 2, next.StepNumber)
}

func TestRefreshAndReplayOn401(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/active-pizza/pz-42/pause", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"id":"pz-42","status":"PAUSED"}`)
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var body refreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "refresh-1", body.RefreshToken)
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"accessToken":"fresh","refreshToken":"refresh-2","tokenType":"Bearer","expiresIn":3600}`)
	})

	c, store := newClient(t, mux, auth.Credentials{AccessToken: "stale", RefreshToken: "refresh-1", Email: "baker@example.com"})

	s, err := c.Transition(context.Background(), "pz-42", domain.TransitionPause)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionPaused, s.Status)
	assert.Equal(t, int32(2), calls.Load())

	creds, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "fresh", creds.AccessToken)
	assert.Equal(t, "refresh-2", creds.RefreshToken)
	assert.Equal(t, "baker@example.com", creds.Email)
}

func TestRefreshFailureLogsOut(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/active-pizza/current", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c, store := newClient(t, mux, auth.Credentials{AccessToken: "stale", RefreshToken: "expired"})

	_, err := c.Current(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Equal(t, int32(1), calls.Load(), "no replay after a failed refresh")

	creds, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, creds.AccessToken)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantIs  error
		wantMsg string
	}{
		{"conflict", http.StatusConflict, `{"message":"Pizza is not in progress"}`, domain.ErrInvalidTransition, "Pizza is not in progress"},
		{"bad request", http.StatusBadRequest, `{"error":"Bad Request"}`, domain.ErrInvalidTransition, "Bad Request"},
		{"not found", http.StatusNotFound, ``, domain.ErrNotFound, "Not Found"},
		{"server error", http.StatusInternalServerError, `oops`, nil, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}), auth.Credentials{AccessToken: "tok"})

			_, err := c.Transition(context.Background(), "pz-1", domain.TransitionResume)
			require.Error(t, err)

			var he *HTTPError
			require.True(t, errors.As(err, &he))
			assert.Equal(t, tt.status, he.StatusCode)
			assert.Equal(t, tt.wantMsg, he.Message)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
		})
	}
}

func TestMutationRequests(t *testing.T) {
	type captured struct {
		method, path, query string
		body                map[string]any
	}
	var last captured

	c, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last = captured{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
		last.body = nil
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &last.body)
		}
		_, _ = io.WriteString(w, `{"id":"pz-7","status":"IN_PROGRESS"}`)
	}), auth.Credentials{AccessToken: "tok"})
	ctx := context.Background()

	_, err := c.CompleteStep(ctx, "pz-7", 3, domain.StepCompletedEarly)
	require.NoError(t, err)
	assert.Equal(t, "/api/active-pizza/pz-7/steps/3/complete", last.path)
	assert.Equal(t, "COMPLETED_EARLY", last.body["status"])

	_, err = c.CompleteStep(ctx, "pz-7", 4, domain.StepUnknown)
	require.NoError(t, err)
	assert.NotContains(t, last.body, "status")

	_, err = c.SkipStep(ctx, "pz-7", 5)
	require.NoError(t, err)
	assert.Equal(t, "/api/active-pizza/pz-7/steps/5/skip", last.path)

	_, err = c.RescheduleByMinutes(ctx, "pz-7", -30)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, last.method)
	assert.Equal(t, "/api/active-pizza/pz-7/reschedule-by-minutes", last.path)
	assert.Equal(t, "minutes=-30", last.query)

	at := time.Date(2026, 10, 20, 18, 30, 0, 0, time.Local)
	_, err = c.Reschedule(ctx, "pz-7", at)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-20T18:30:00", last.body["newTargetBakeTime"])

	_, err = c.EnableNotifications(ctx, "pz-7", "+48123456789", 20)
	require.NoError(t, err)
	assert.Equal(t, "/api/active-pizza/pz-7/notifications/enable", last.path)
	assert.Equal(t, "+48123456789", last.body["phoneNumber"])
	assert.EqualValues(t, 20, last.body["reminderMinutesBefore"])

	_, err = c.CreateFromRecipe(ctx, "rec-9", at)
	require.NoError(t, err)
	assert.Equal(t, "/api/active-pizza/from-recipe/rec-9", last.path)
	assert.Equal(t, "2026-10-20T18:30:00", last.body["targetBakeTime"])
}

func TestHistoryAndCalendar(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/active-pizza/history", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":"a","status":"COMPLETED"},{"id":"b","status":"CANCELLED"}]`)
	})
	mux.HandleFunc("/api/active-pizza/a/calendar.ics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = io.WriteString(w, "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n")
	})
	c, _ := newClient(t, mux, auth.Credentials{AccessToken: "tok"})
	ctx := context.Background()

	hist, err := c.History(ctx)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, domain.SessionCancelled, hist[1].Status)

	ics, err := c.CalendarExport(ctx, "a")
	require.NoError(t, err)
	assert.Contains(t, string(ics), "BEGIN:VCALENDAR")
}

func TestLogin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Invalid credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"accessToken":"a1","refreshToken":"r1","tokenType":"Bearer"}`)
	})
	c, store := newClient(t, mux, auth.Credentials{})
	ctx := context.Background()

	err := c.Login(ctx, "baker@example.com", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Contains(t, err.Error(), "Invalid credentials")

	require.NoError(t, c.Login(ctx, "baker@example.com", "secret"))
	creds, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "a1", creds.AccessToken)
	assert.Equal(t, "baker@example.com", creds.Email)

	require.NoError(t, c.Logout())
	creds, _ = store.Load()
	assert.Empty(t, creds.AccessToken)
}

func TestTimestampUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{`"2026-10-19T14:30:00"`, time.Date(2026, 10, 19, 14, 30, 0, 0, time.Local)},
		{`"2026-10-19T14:30"`, time.Date(2026, 10, 19, 14, 30, 0, 0, time.Local)},
		{`"2026-10-19T14:30:00.5"`, time.Date(2026, 10, 19, 14, 30, 0, 500_000_000, time.Local)},
		{`"2026-10-19T12:30:00Z"`, time.Date(2026, 10, 19, 12, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(tt.in), &ts), tt.in)
		assert.True(t, tt.want.Equal(ts.Time), "%s decoded to %s", tt.in, ts.Time)
	}

	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}
