package descriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/jonesrussell/jobscout/internal/config"
	"github.com/jonesrussell/jobscout/internal/logger"
)

const defaultFetchTimeout = 30 * time.Second

// defaultHeaders is the browser-like header block sent on every attempt.
// Accept-Encoding is deliberately absent so the transport negotiates and
// decompresses on its own.
var defaultHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language":           "en-GB,en;q=0.9,en-US;q=0.8",
	"DNT":                       "1",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
	"Cache-Control":             "max-age=0",
}

// impersonation is one browser signature: boards that fingerprint clients
// often accept one while rejecting another, so attempts rotate through
// several.
type impersonation struct {
	name      string
	userAgent string
	secChUA   string
}

var impersonations = []impersonation{
	{
		name:      "chrome",
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		secChUA:   `"Not A(Brand";v="99", "Google Chrome";v="121", "Chromium";v="121"`,
	},
	{
		name:      "chrome120",
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		secChUA:   `"Not_A Brand";v="8", "Chromium";v="120", "Google Chrome";v="120"`,
	},
	{
		name:      "chrome110",
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/110.0.0.0 Safari/537.36",
		secChUA:   `"Chromium";v="110", "Not A(Brand";v="24", "Google Chrome";v="110"`,
	},
	{
		name:      "edge",
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
		secChUA:   `"Not_A Brand";v="8", "Chromium";v="120", "Microsoft Edge";v="120"`,
	},
}

// Fetcher pulls job detail pages over plain HTTP wearing full browser
// header sets; detail pages do not need script execution, which keeps this
// path far cheaper than a browser session. Not safe for concurrent use; it
// belongs to one backfill loop at a time.
type Fetcher struct {
	collector *colly.Collector
	log       logger.Interface

	current impersonation
	body    []byte
	status  int
}

func NewFetcher(cfg config.DescriptionsConfig, log logger.Interface) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	c := colly.NewCollector(colly.AllowURLRevisit())
	c.SetRequestTimeout(timeout)

	f := &Fetcher{collector: c, log: log.With("component", "descriptions")}

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", f.current.userAgent)
		for k, v := range defaultHeaders {
			r.Headers.Set(k, v)
		}
		r.Headers.Set("Sec-CH-UA", f.current.secChUA)
		r.Headers.Set("Sec-CH-UA-Mobile", "?0")
		r.Headers.Set("Sec-CH-UA-Platform", `"Windows"`)
	})
	c.OnResponse(func(r *colly.Response) {
		f.body = r.Body
		f.status = r.StatusCode
	})
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			f.status = r.StatusCode
		}
	})

	return f
}

// Fetch returns the full description behind jobURL, trying each browser
// signature in turn until one yields extractable text. The source hint
// selects the board's selector list; when empty it is detected from the
// URL.
func (f *Fetcher) Fetch(ctx context.Context, jobURL, source string) (string, error) {
	if jobURL == "" {
		return "", errors.New("job has no url")
	}
	if source == "" {
		source = detectSource(jobURL)
	}

	for _, imp := range impersonations {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		body, err := f.get(jobURL, imp)
		if err != nil {
			f.log.Debug("Fetch attempt failed",
				"url", jobURL, "browser", imp.name, "status", f.status, "error", err)
			continue
		}

		if desc := ExtractDescription(body, source); desc != "" {
			f.log.Debug("Fetched description",
				"url", jobURL, "browser", imp.name, "chars", len(desc))
			return desc, nil
		}
		f.log.Debug("Page yielded no description", "url", jobURL, "browser", imp.name)
	}

	return "", fmt.Errorf("no description extracted from %s", jobURL)
}

func (f *Fetcher) get(jobURL string, imp impersonation) ([]byte, error) {
	f.current = imp
	f.body = nil
	f.status = 0

	if err := f.collector.Visit(jobURL); err != nil {
		return nil, err
	}
	if len(f.body) == 0 {
		return nil, errors.New("empty response body")
	}
	return f.body, nil
}
