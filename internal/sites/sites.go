// Package sites holds the extraction adapters, one per job board. Each
// adapter knows its board's search URL grammar, employment-type vocabulary,
// card markup, and pagination controls, and turns listing pages into
// models.Job records through a rendered-page handle it is given.
package sites

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/jobscout/internal/logger"
	"github.com/jonesrussell/jobscout/internal/models"
)

// Page is the rendered-page handle adapters drive. *browser.Session
// implements it; tests substitute a static fixture.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// WaitFor reports whether selector became visible within timeout.
	// False is the normal end-of-results signal, not an error.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) bool
	HTML(ctx context.Context) (string, error)
	Click(ctx context.Context, selector string) error
	Location(ctx context.Context) (string, error)
}

// SaveFunc persists one record as it is extracted. Save errors are logged
// by the adapter and do not stop the run.
type SaveFunc func(ctx context.Context, job models.Job) error

// Query is one search against one board.
type Query struct {
	Keywords        string
	Location        string
	Radius          int
	EmploymentTypes []string
	// Save, when set, persists each record immediately instead of
	// leaving persistence to the caller.
	Save SaveFunc
}

// Adapter extracts job records from one board.
type Adapter interface {
	Name() string
	Search(ctx context.Context, page Page, q Query, maxPages int) ([]models.Job, error)
}

const (
	defaultMaxPages = 20
	listingTimeout  = 10 * time.Second
)

// Registry holds the known adapters in a stable order.
type Registry struct {
	adapters map[string]Adapter
	order    []string
}

func NewRegistry(log logger.Interface) *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	for _, a := range []Adapter{
		NewTotalJobs(log),
		NewCVLibrary(log),
		NewReed(log),
		NewIndeed(log),
	} {
		r.adapters[a.Name()] = a
		r.order = append(r.order, a.Name())
	}
	return r
}

func (r *Registry) Lookup(name string) (Adapter, bool) {
	a, ok := r.adapters[strings.ToLower(strings.TrimSpace(name))]
	return a, ok
}

// All returns the adapters in registration order.
func (r *Registry) All() []Adapter {
	out := make([]Adapter, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.adapters[name])
	}
	return out
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// firstSel returns the first candidate selector's first match, or nil when
// none of them match. Boards render the same field under different markup
// depending on the template, so every field lookup goes through a
// candidate list.
func firstSel(s *goquery.Selection, selectors ...string) *goquery.Selection {
	for _, sel := range selectors {
		if m := s.Find(sel).First(); m.Length() > 0 {
			return m
		}
	}
	return nil
}

// firstText returns the first candidate's cleaned text.
func firstText(s *goquery.Selection, selectors ...string) string {
	if m := firstSel(s, selectors...); m != nil {
		return cleanText(m.Text())
	}
	return ""
}

// cleanText collapses all runs of whitespace to single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// absURL prefixes site-relative hrefs with the board's base URL.
func absURL(base, href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	return base + href
}

// mapEmployment returns the first requested employment type the board's
// vocabulary can express, as the board's own token.
func mapEmployment(types []string, vocab map[string]string) (string, bool) {
	for _, t := range types {
		if v, ok := vocab[strings.ToLower(strings.TrimSpace(t))]; ok {
			return v, true
		}
	}
	return "", false
}

// employmentFromType maps free-form job-type text onto the canonical
// vocabulary. Checks run in priority order since text like "fixed term
// contract (maternity cover)" can hit several.
func employmentFromType(text string) *string {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "contract"):
		return strPtr(models.EmploymentContract)
	case strings.Contains(t, "perm"):
		return strPtr(models.EmploymentPermanent)
	case strings.Contains(t, "temp"):
		return strPtr(models.EmploymentTemporary)
	}
	return nil
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func strPtr(s string) *string { return &s }

// orUnknown substitutes the sentinel for fields a card simply lacks.
func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// optional converts empty strings to nil for nullable columns.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func capPages(maxPages int) int {
	if maxPages <= 0 {
		return defaultMaxPages
	}
	return maxPages
}
