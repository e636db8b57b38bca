package browser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPaceDelay(t *testing.T) {
	t.Parallel()

	const (
		min    = 2 * time.Second
		max    = 5 * time.Second
		jitter = time.Second
	)

	t.Run("gap already covered leaves only jitter", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, jitter, paceDelay(10*time.Second, min, max, jitter))
	})

	t.Run("short gap tops up to the minimum plus jitter", func(t *testing.T) {
		t.Parallel()
		got := paceDelay(500*time.Millisecond, min, max, jitter)
		assert.Equal(t, min-500*time.Millisecond+jitter, got)
	})

	t.Run("exact gap counts as covered", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, jitter, paceDelay(min, min, max, jitter))
	})

	t.Run("total is capped at the maximum", func(t *testing.T) {
		t.Parallel()
		got := paceDelay(0, min, 2500*time.Millisecond, 1500*time.Millisecond)
		assert.Equal(t, 2500*time.Millisecond, got)
	})

	t.Run("zero maximum disables the cap", func(t *testing.T) {
		t.Parallel()
		got := paceDelay(0, min, 0, 1500*time.Millisecond)
		assert.Equal(t, min+1500*time.Millisecond, got)
	})
}

func TestClassifyStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int64
		attempt int
		want    navOutcome
		wait    time.Duration
	}{
		{"ok", 200, 0, navOK, 0},
		{"rate limited", 429, 0, navRateLimited, 30 * time.Second},
		{"rate limit backoff grows per attempt", 429, 2, navRateLimited, 90 * time.Second},
		{"forbidden", 403, 0, navBlocked, 0},
		{"server error", 500, 0, navTransient, 5 * time.Second},
		{"redirect", 302, 1, navTransient, 5 * time.Second},
		{"no response captured", 0, 0, navTransient, 5 * time.Second},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			outcome, wait := classifyStatus(tt.status, tt.attempt)
			assert.Equal(t, tt.want, outcome)
			assert.Equal(t, tt.wait, wait)
		})
	}
}

func TestRandomDuration(t *testing.T) {
	t.Parallel()

	const (
		min = 200 * time.Millisecond
		max = 600 * time.Millisecond
	)

	for i := 0; i < 100; i++ {
		d := randomDuration(min, max)
		assert.GreaterOrEqual(t, d, min)
		assert.Less(t, d, max)
	}
}

func TestRandomProfile(t *testing.T) {
	t.Parallel()

	p := randomProfile()

	assert.Contains(t, userAgents, p.UserAgent)
	assert.Contains(t, viewports, p.Viewport)
	assert.Equal(t, "en-GB", p.Locale)
	assert.Equal(t, "Europe/London", p.Timezone)
	assert.Equal(t, acceptLanguage, p.AcceptLanguage)
	assert.InDelta(t, 51.5074, p.Latitude, 0.0001)
	assert.InDelta(t, -0.1278, p.Longitude, 0.0001)
}
