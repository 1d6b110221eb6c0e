package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/pizzatimer/internal/logger"
)

func signedToken(t *testing.T, exp *time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "baker@example.com"}
	if exp != nil {
		claims.ExpiresAt = jwt.NewNumericDate(*exp)
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func newTestStore() (*Store, afero.Fs) {
	fs := afero.NewMemMapFs()
	return NewStore(fs, "/state/pizzatimer/credentials.json", logger.New(logger.LevelOff, nil)), fs
}

func TestStoreRoundTrip(t *testing.T) {
	s, fs := newTestStore()

	c, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, c.AccessToken, "missing file means logged out")

	require.NoError(t, s.Save(Credentials{AccessToken: "a", RefreshToken: "r", Email: "baker@example.com"}))

	info, err := fs.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "-rw-------", info.Mode().Perm().String())

	// A fresh store reads what the first one wrote.
	again := NewStore(fs, s.Path(), logger.New(logger.LevelOff, nil))
	c, err = again.Load()
	require.NoError(t, err)
	assert.Equal(t, "r", c.RefreshToken)
	assert.Equal(t, "baker@example.com", c.Email)

	require.NoError(t, again.Clear())
	exists, err := afero.Exists(fs, s.Path())
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, again.Clear(), "clearing twice is fine")
}

func TestStoreCorruptFile(t *testing.T) {
	s, fs := newTestStore()
	require.NoError(t, afero.WriteFile(fs, s.Path(), []byte("{not json"), 0o600))

	_, err := s.Load()
	assert.Error(t, err)
	assert.False(t, s.Authenticated(time.Now()))
}

func TestAuthenticated(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Minute)

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"no token", "", false},
		{"valid", signedToken(t, &future), true},
		{"expired", signedToken(t, &past), false},
		{"no exp claim", signedToken(t, nil), true},
		{"garbage", "not.a.jwt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore()
			require.NoError(t, s.Save(Credentials{AccessToken: tt.token}))
			assert.Equal(t, tt.want, s.Authenticated(now))
		})
	}
}
