package countdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		seconds int
		ok      bool
		want    string
	}{
		{0, false, "--:--"},
		{125, true, "02:05"},
		{-125, true, "-02:05"},
		{3725, true, "1:02:05"},
		{-3725, true, "-1:02:05"},
		{0, true, "00:00"},
		{59, true, "00:59"},
		{3599, true, "59:59"},
		{3600, true, "1:00:00"},
		{36000 + 61, true, "10:01:01"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.seconds, tt.ok), "Format(%d, %v)", tt.seconds, tt.ok)
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		delta       time.Duration
		wantMinutes int
		wantSeconds int
	}{
		{10 * time.Minute, 10, 600},
		{10*time.Minute - time.Millisecond, 9, 599},
		{30 * time.Second, 0, 30},
		{0, 0, 0},
		{-time.Millisecond, -1, -1},
		{-60 * time.Second, -1, -60},
		{-61 * time.Second, -2, -61},
		{-5 * time.Minute, -5, -300},
		{-5*time.Minute - time.Second, -6, -301},
	}

	for _, tt := range tests {
		m, s := Split(tt.delta)
		assert.Equal(t, tt.wantMinutes, m, "minutes for %s", tt.delta)
		assert.Equal(t, tt.wantSeconds, s, "seconds for %s", tt.delta)
	}
}

func TestDistance(t *testing.T) {
	assert.Equal(t, "no data", Distance(0, false))
	assert.Equal(t, "now!", Distance(0, true))
	assert.Equal(t, "in 5 min", Distance(5, true))
	assert.Equal(t, "in 2h", Distance(120, true))
	assert.Equal(t, "in 2h 5min", Distance(125, true))
	assert.Equal(t, "12 min ago", Distance(-12, true))
	assert.Equal(t, "1h 5min ago", Distance(-65, true))
}
