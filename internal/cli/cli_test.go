package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/pizzatimer/internal/auth"
	"github.com/hammamikhairi/pizzatimer/internal/domain"
	"github.com/hammamikhairi/pizzatimer/internal/logger"
)

const sessionJSON = `{
  "id": "pz-42",
  "name": "Saturday Neapolitan",
  "status": "IN_PROGRESS",
  "reminderMinutesBefore": 10,
  "completionPercentage": 50,
  "steps": [
    {"stepNumber": 1, "title": "Mix", "scheduledTime": "2026-10-19T09:00:00", "status": "COMPLETED"},
    {"stepNumber": 2, "title": "Ball the dough", "scheduledTime": "2026-10-19T15:00:00", "status": "PENDING"}
  ]
}`

// backend records requests and answers from a route table.
type backend struct {
	mu       sync.Mutex
	requests []string
	routes   map[string]func(w http.ResponseWriter)
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	b.mu.Lock()
	b.requests = append(b.requests, key)
	handler, ok := b.routes[key]
	b.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	handler(w)
}

func (b *backend) seen() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

func jsonReply(status int, body string) func(http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

// setup points the config at a test server and a temp credentials file.
func setup(t *testing.T, routes map[string]func(http.ResponseWriter), loggedIn bool) *backend {
	t.Helper()
	b := &backend{routes: routes}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	credPath := filepath.Join(dir, "credentials.json")
	t.Setenv("PIZZATIMER_API_URL", srv.URL)
	t.Setenv("PIZZATIMER_CREDENTIALS_FILE", credPath)
	t.Setenv("PIZZATIMER_LOG_FILE", filepath.Join(dir, "pizzatimer.log"))

	if loggedIn {
		exp := jwt.NewNumericDate(time.Now().Add(time.Hour))
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: exp}).
			SignedString([]byte("test-secret"))
		require.NoError(t, err)
		store := auth.NewStore(afero.NewOsFs(), credPath, logger.New(logger.LevelOff, nil))
		require.NoError(t, store.Save(auth.Credentials{AccessToken: tok, RefreshToken: "r", Email: "me@example.com"}))
	}
	return b
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStatusCommand(t *testing.T) {
	setup(t, map[string]func(http.ResponseWriter){
		"GET /api/active-pizza/current": jsonReply(http.StatusOK, sessionJSON),
	}, true)

	out, err := execute(t, Status())
	require.NoError(t, err)
	assert.Contains(t, out, "Saturday Neapolitan")
	assert.Contains(t, out, "Ball the dough")
	assert.Contains(t, out, "Next: Ball the dough")
}

func TestStatusWithoutActivePizza(t *testing.T) {
	setup(t, map[string]func(http.ResponseWriter){
		"GET /api/active-pizza/current": func(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) },
	}, true)

	out, err := execute(t, Status())
	require.NoError(t, err)
	assert.Contains(t, out, "No active pizza")
}

func TestCommandsRequireLogin(t *testing.T) {
	b := setup(t, map[string]func(http.ResponseWriter){}, false)

	_, err := execute(t, Status())
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Empty(t, b.seen(), "no request without credentials")
}

func TestSkipCommand(t *testing.T) {
	b := setup(t, map[string]func(http.ResponseWriter){
		"GET /api/active-pizza/current":             jsonReply(http.StatusOK, sessionJSON),
		"POST /api/active-pizza/pz-42/steps/2/skip": jsonReply(http.StatusOK, sessionJSON),
	}, true)

	out, err := execute(t, Skip())
	require.NoError(t, err)
	assert.Contains(t, out, "Step skipped")
	assert.Equal(t, []string{
		"GET /api/active-pizza/current",
		"POST /api/active-pizza/pz-42/steps/2/skip",
		"GET /api/active-pizza/current",
	}, b.seen())
}

func TestFailedActionIsToasted(t *testing.T) {
	setup(t, map[string]func(http.ResponseWriter){
		"GET /api/active-pizza/current":                 jsonReply(http.StatusOK, sessionJSON),
		"POST /api/active-pizza/pz-42/steps/2/complete": jsonReply(http.StatusConflict, `{"message":"Step already done"}`),
	}, true)

	out, err := execute(t, Complete(), "2", "--status", "late")
	require.Error(t, err)
	assert.True(t, Reported(err))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Contains(t, out, "Could not complete step: Step already done")
}

func TestCancelWithYes(t *testing.T) {
	b := setup(t, map[string]func(http.ResponseWriter){
		"GET /api/active-pizza/current":       jsonReply(http.StatusOK, sessionJSON),
		"POST /api/active-pizza/pz-42/cancel": jsonReply(http.StatusOK, strings.Replace(sessionJSON, "IN_PROGRESS", "CANCELLED", 1)),
	}, true)

	out, err := execute(t, Cancel(), "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Pizza cancelled")
	assert.Contains(t, b.seen(), "POST /api/active-pizza/pz-42/cancel")
}

func TestPrecheckStopsBeforeRequest(t *testing.T) {
	b := setup(t, map[string]func(http.ResponseWriter){
		"GET /api/active-pizza/current": jsonReply(http.StatusOK, sessionJSON),
	}, true)

	_, err := execute(t, Start())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, []string{"GET /api/active-pizza/current"}, b.seen())
}

func TestRescheduleFlags(t *testing.T) {
	setup(t, map[string]func(http.ResponseWriter){}, true)

	_, err := execute(t, Reschedule())
	assert.EqualError(t, err, "one of --by or --at is required")

	_, err = execute(t, Reschedule(), "--by", "30", "--at", "19:30")
	assert.EqualError(t, err, "use either --by or --at, not both")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, Version())
	require.NoError(t, err)
	assert.Equal(t, BuildVersion+"\n", out)
}

func TestParseClock(t *testing.T) {
	now := time.Date(2026, 10, 19, 18, 0, 0, 0, time.Local)

	t.Run("later today", func(t *testing.T) {
		got, err := parseClock("19:30", now)
		require.NoError(t, err)
		assert.True(t, got.Equal(time.Date(2026, 10, 19, 19, 30, 0, 0, time.Local)))
	})
	t.Run("rolls to tomorrow", func(t *testing.T) {
		got, err := parseClock("07:15", now)
		require.NoError(t, err)
		assert.True(t, got.Equal(time.Date(2026, 10, 20, 7, 15, 0, 0, time.Local)))
	})
	t.Run("full timestamp", func(t *testing.T) {
		got, err := parseClock("2026-10-24T19:30", now)
		require.NoError(t, err)
		assert.True(t, got.Equal(time.Date(2026, 10, 24, 19, 30, 0, 0, time.Local)))
	})
	t.Run("garbage", func(t *testing.T) {
		_, err := parseClock("tonight", now)
		assert.Error(t, err)
	})
}

func TestParseShift(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"30", 30, false},
		{"-15", -15, false},
		{"1h30m", 90, false},
		{"-45m", -45, false},
		{"0", 0, true},
		{"30s", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseShift(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStepStatus(t *testing.T) {
	tests := map[string]domain.StepStatus{
		"":        domain.StepUnknown,
		"early":   domain.StepCompletedEarly,
		"on-time": domain.StepCompleted,
		"LATE":    domain.StepCompletedLate,
	}
	for in, want := range tests {
		got, err := parseStepStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseStepStatus("sometime")
	assert.Error(t, err)
}

func TestParseStepArg(t *testing.T) {
	n, err := parseStepArg(nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = parseStepArg([]string{"3"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = parseStepArg([]string{"-1"})
	assert.Error(t, err)
}
