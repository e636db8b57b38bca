package browser

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
)

const (
	jitterFloor = 500 * time.Millisecond
	jitterCeil  = 1500 * time.Millisecond

	// rateLimitedBase scales with the attempt number on 429 responses.
	rateLimitedBase = 30 * time.Second
	transientDelay  = 5 * time.Second
)

// navOutcome is what one attempt's response status means for the retry loop.
type navOutcome int

const (
	navOK navOutcome = iota
	navRateLimited
	navBlocked
	navTransient
)

// classifyStatus maps a document response status to the loop's next move
// and the backoff before it. Zero (the tab produced no response) retries
// like any unexpected status; rate-limit backoff grows with the attempt
// number.
func classifyStatus(status int64, attempt int) (navOutcome, time.Duration) {
	switch status {
	case http.StatusOK:
		return navOK, 0
	case http.StatusTooManyRequests:
		return navRateLimited, time.Duration(attempt+1) * rateLimitedBase
	case http.StatusForbidden:
		return navBlocked, 0
	default:
		return navTransient, transientDelay
	}
}

// Navigate loads url with pacing against the previous request and up to
// MaxRetries attempts. 200 counts as success after a short human-like
// dwell; 429 backs off and retries; 403 fails the session with ErrBlocked;
// anything else retries after a flat delay.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.pace(ctx); err != nil {
		return err
	}

	maxRetries := s.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		status, err := s.attempt(ctx, url)
		if err != nil {
			s.log.Warn("Navigation error", "url", url, "attempt", attempt+1, "error", err)
			if err := sleep(ctx, transientDelay); err != nil {
				return err
			}
			continue
		}

		switch outcome, wait := classifyStatus(status, attempt); outcome {
		case navOK:
			s.humanize(ctx)
			return nil
		case navRateLimited:
			s.log.Warn("Site rate limited", "url", url, "wait", wait)
			if err := sleep(ctx, wait); err != nil {
				return err
			}
		case navBlocked:
			s.log.Error("Access forbidden, IP may be blocked", "url", url)
			return fmt.Errorf("%s: %w", url, ErrBlocked)
		case navTransient:
			s.log.Warn("Unexpected status", "url", url, "status", status)
			if err := sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("%s: %w", url, ErrRetriesExhausted)
}

// attempt performs one navigation and reports the document response status.
// A zero status means the tab navigated without producing a response, which
// the caller treats like any other retryable status.
func (s *Session) attempt(ctx context.Context, url string) (int64, error) {
	opCtx, cancel := s.op(ctx, s.navTimeout())
	defer cancel()

	resp, err := chromedp.RunResponse(opCtx, chromedp.Navigate(url))
	if err != nil {
		return 0, err
	}
	if resp == nil {
		return 0, nil
	}
	return resp.Status, nil
}

// pace sleeps so that requests stay at least MinDelay apart, plus jitter so
// the gap never looks mechanical. The clock starts from the previous
// request's completion, not its start.
func (s *Session) pace(ctx context.Context) error {
	delay := paceDelay(time.Since(s.lastRequest), s.cfg.MinDelay, s.cfg.MaxDelay, randomDuration(jitterFloor, jitterCeil))
	if err := sleep(ctx, delay); err != nil {
		return err
	}
	s.lastRequest = time.Now()
	return nil
}

// paceDelay computes how long to wait given the time already elapsed since
// the last request. Jitter always applies; the minimum gap only when the
// elapsed time has not covered it yet, and maxDelay caps the total.
func paceDelay(since, minDelay, maxDelay, jitter time.Duration) time.Duration {
	delay := jitter
	if since < minDelay {
		delay = minDelay - since + jitter
	}
	if maxDelay > 0 && delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// humanize performs the small dwell a person makes on a freshly loaded
// page: a pause, a couple of scrolls, one mouse move. Best effort; a page
// that rejects script evaluation should not fail the navigation.
func (s *Session) humanize(ctx context.Context) {
	_ = sleep(ctx, randomDuration(time.Second, 2*time.Second))

	for i := 0; i < 2; i++ {
		opCtx, cancel := s.op(ctx, 5*time.Second)
		_ = chromedp.Run(opCtx,
			chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", 200+rand.Intn(301)), nil))
		cancel()
		_ = sleep(ctx, randomDuration(200*time.Millisecond, 600*time.Millisecond))
	}

	x := float64(100 + rand.Intn(701))
	y := float64(100 + rand.Intn(501))
	opCtx, cancel := s.op(ctx, 5*time.Second)
	defer cancel()
	_ = chromedp.Run(opCtx, chromedp.ActionFunc(func(c context.Context) error {
		return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(c)
	}))
}

func randomDuration(min, max time.Duration) time.Duration {
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
