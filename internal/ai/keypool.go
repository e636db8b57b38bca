package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonesrussell/jobscout/internal/config"
	"github.com/jonesrussell/jobscout/internal/logger"
)

var (
	// ErrNoKeys means the pool was constructed without any credentials.
	ErrNoKeys = errors.New("no API keys configured")
	// ErrNoKeyAvailable means every credential stayed saturated for the
	// whole wait budget.
	ErrNoKeyAvailable = errors.New("timed out waiting for an available API key")
)

const (
	defaultQuotaPerKey = 40
	defaultRateWindow  = time.Minute
	defaultMaxWait     = 2 * time.Minute
	// acquirePoll caps one sleep between acquisition attempts so a key
	// freed early is claimed promptly.
	acquirePoll = 500 * time.Millisecond
)

type apiKey struct {
	name  string
	key   string
	times []time.Time
}

// evict drops request timestamps that have left the window. Callers hold
// the pool mutex.
func (k *apiKey) evict(now time.Time, window time.Duration) {
	i := 0
	for i < len(k.times) && now.Sub(k.times[i]) > window {
		i++
	}
	k.times = append(k.times[:0], k.times[i:]...)
}

// KeyPool rotates requests across credentials, each under a sliding-window
// quota. Eviction, the quota check, and the timestamp append happen as one
// step under the mutex; anything looser would let concurrent workers
// overrun a key's quota.
type KeyPool struct {
	mu      sync.Mutex
	keys    []*apiKey
	quota   int
	window  time.Duration
	maxWait time.Duration
	log     logger.Interface

	now func() time.Time
}

// NewKeyPool builds a pool over cfg.Keys, named key1..keyN in order.
func NewKeyPool(cfg config.AIConfig, log logger.Interface) (*KeyPool, error) {
	if len(cfg.Keys) == 0 {
		return nil, ErrNoKeys
	}

	quota := cfg.QuotaPerKey
	if quota <= 0 {
		quota = defaultQuotaPerKey
	}
	window := cfg.Window
	if window <= 0 {
		window = defaultRateWindow
	}
	maxWait := cfg.MaxWait
	if maxWait <= 0 {
		maxWait = defaultMaxWait
	}

	pool := &KeyPool{
		quota:   quota,
		window:  window,
		maxWait: maxWait,
		log:     log,
		now:     time.Now,
	}
	for i, key := range cfg.Keys {
		pool.keys = append(pool.keys, &apiKey{
			name: fmt.Sprintf("key%d", i+1),
			key:  key,
		})
	}

	log.Info("Loaded AI credentials",
		"keys", len(pool.keys),
		"quota_per_key", quota,
		"window", window,
	)
	return pool, nil
}

// TryAcquire returns the first credential with quota headroom, recording a
// request timestamp against it. ok is false when every key is saturated.
func (p *KeyPool) TryAcquire() (key, name string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for _, k := range p.keys {
		k.evict(now, p.window)
		if len(k.times) < p.quota {
			k.times = append(k.times, now)
			return k.key, k.name, true
		}
	}
	return "", "", false
}

// WaitTime returns how long until some credential frees capacity. Zero
// means one is free right now.
func (p *KeyPool) WaitTime() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	minWait := time.Duration(-1)
	for _, k := range p.keys {
		k.evict(now, p.window)
		if len(k.times) < p.quota {
			return 0
		}
		wait := p.window - now.Sub(k.times[0])
		if wait < 0 {
			wait = 0
		}
		if minWait < 0 || wait < minWait {
			minWait = wait
		}
	}
	if minWait < 0 {
		return time.Second
	}
	return minWait
}

// Acquire blocks until a credential is available, polling in short sleeps.
// The total wait is bounded; past the budget the caller should abandon the
// job rather than queue forever.
func (p *KeyPool) Acquire(ctx context.Context) (key, name string, err error) {
	deadline := p.now().Add(p.maxWait)
	for {
		if key, name, ok := p.TryAcquire(); ok {
			return key, name, nil
		}

		wait := p.WaitTime()
		if wait > acquirePoll {
			wait = acquirePoll
		}
		if wait <= 0 {
			wait = time.Millisecond
		}
		remaining := deadline.Sub(p.now())
		if remaining <= 0 {
			return "", "", ErrNoKeyAvailable
		}
		if wait > remaining {
			wait = remaining
		}
		if wait > 100*time.Millisecond {
			p.log.Debug("Rate limited, waiting for key capacity", "wait", wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", "", ctx.Err()
		case <-timer.C:
		}
	}
}

// KeyStatus is one credential's current window usage.
type KeyStatus struct {
	Name      string `json:"name"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Available int    `json:"available"`
}

// Status reports per-key window usage for the status surface.
func (p *KeyPool) Status() []KeyStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	out := make([]KeyStatus, 0, len(p.keys))
	for _, k := range p.keys {
		k.evict(now, p.window)
		out = append(out, KeyStatus{
			Name:      k.name,
			Used:      len(k.times),
			Limit:     p.quota,
			Available: p.quota - len(k.times),
		})
	}
	return out
}
