package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/jonesrussell/jobscout/internal/config"
	"github.com/jonesrussell/jobscout/internal/logger"
)

var (
	// ErrBlocked means the site answered 403 and further attempts on this
	// session are pointless.
	ErrBlocked = errors.New("blocked by site")
	// ErrRetriesExhausted means every navigation attempt failed with a
	// retryable status or error.
	ErrRetriesExhausted = errors.New("navigation retries exhausted")
)

const (
	defaultNavTimeout = 30 * time.Second
	defaultMaxRetries = 3
)

// Session is one headless Chrome tab wearing a single fingerprint for its
// whole lifetime. Sessions are not safe for concurrent use; run one per
// source goroutine.
type Session struct {
	cfg     config.BrowserConfig
	log     logger.Interface
	profile Profile

	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc

	lastRequest time.Time
}

// NewSession launches Chrome, opens a tab, and applies the fingerprint and
// stealth overrides before any site sees the tab. The returned session must
// be closed by the caller.
func NewSession(ctx context.Context, cfg config.BrowserConfig, log logger.Interface) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-web-security", true),
		chromedp.Flag("disable-features", "IsolateOrigins,site-per-process,VizDisplayCompositor"),
		chromedp.Flag("disable-site-isolation-trials", true),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	s := &Session{
		cfg:         cfg,
		log:         log.With("component", "browser"),
		profile:     randomProfile(),
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}

	if err := s.bootstrap(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to prepare browser session: %w", err)
	}

	s.log.Debug("Browser session ready",
		"user_agent", s.profile.UserAgent,
		"viewport", fmt.Sprintf("%dx%d", s.profile.Viewport.Width, s.profile.Viewport.Height))
	return s, nil
}

// bootstrap applies everything that must be in place before the first
// navigation: extra headers, user agent, viewport, timezone, locale,
// geolocation, and the stealth init script.
func (s *Session) bootstrap(ctx context.Context) error {
	opCtx, cancel := s.op(ctx, s.navTimeout())
	defer cancel()

	return chromedp.Run(opCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language": s.profile.AcceptLanguage,
			"Accept":          acceptHeader,
		}),
		emulation.SetUserAgentOverride(s.profile.UserAgent).
			WithAcceptLanguage(s.profile.AcceptLanguage),
		chromedp.EmulateViewport(s.profile.Viewport.Width, s.profile.Viewport.Height),
		emulation.SetTimezoneOverride(s.profile.Timezone),
		emulation.SetLocaleOverride().WithLocale(s.profile.Locale),
		emulation.SetGeolocationOverride().
			WithLatitude(s.profile.Latitude).
			WithLongitude(s.profile.Longitude).
			WithAccuracy(1),
		cdpbrowser.GrantPermissions([]cdpbrowser.PermissionType{
			cdpbrowser.PermissionTypeGeolocation,
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
	)
}

// op derives a deadline-bound context from the tab context and ties it to
// the caller's context, so caller cancellation interrupts browser work that
// is otherwise running on the tab's own lifetime.
func (s *Session) op(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	opCtx, cancel := context.WithTimeout(s.ctx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}

func (s *Session) navTimeout() time.Duration {
	if s.cfg.NavTimeout > 0 {
		return s.cfg.NavTimeout
	}
	return defaultNavTimeout
}

// WaitFor waits until selector is visible. A false return means the element
// never appeared within the timeout; on listing pages that is the normal
// no-results signal, not an error.
func (s *Session) WaitFor(ctx context.Context, selector string, timeout time.Duration) bool {
	opCtx, cancel := s.op(ctx, timeout)
	defer cancel()

	return chromedp.Run(opCtx, chromedp.WaitVisible(selector, chromedp.ByQuery)) == nil
}

// HTML returns the current document as rendered markup.
func (s *Session) HTML(ctx context.Context) (string, error) {
	opCtx, cancel := s.op(ctx, s.navTimeout())
	defer cancel()

	var html string
	if err := chromedp.Run(opCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to capture page html: %w", err)
	}
	return html, nil
}

// Click clicks the first element matching selector.
func (s *Session) Click(ctx context.Context, selector string) error {
	opCtx, cancel := s.op(ctx, s.navTimeout())
	defer cancel()

	if err := chromedp.Run(opCtx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to click %q: %w", selector, err)
	}
	return nil
}

// Location returns the current page URL.
func (s *Session) Location(ctx context.Context) (string, error) {
	opCtx, cancel := s.op(ctx, s.navTimeout())
	defer cancel()

	var loc string
	if err := chromedp.Run(opCtx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return loc, nil
}

// Close tears down the tab and the Chrome process.
func (s *Session) Close() {
	s.cancelTab()
	s.cancelAlloc()
}
