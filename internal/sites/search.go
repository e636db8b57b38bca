package sites

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/jobscout/internal/logger"
	"github.com/jonesrussell/jobscout/internal/models"
)

// boardOps is the per-board behavior the shared pagination loop drives.
type boardOps interface {
	Name() string
	base() string
	listingSelector() string
	cards(doc *goquery.Document) []*goquery.Selection
	// extract turns one card into a record. False drops the card; a card
	// without a recognizable title is dropped silently.
	extract(card *goquery.Selection) (models.Job, bool)
	// next locates the enabled next-page control. It returns the
	// control's href or, when it has none, the selector to click. Both
	// empty means pagination is done.
	next(doc *goquery.Document, pageNum int) (href string, clickSel string)
}

// runSearch is the pagination loop shared by every adapter: load the search
// URL, then per page wait for listings, extract cards, and advance through
// the next-page control. A first-page load failure fails the source; from
// page two on, navigation errors end the run benignly since they are
// indistinguishable from a board throttling the tail of a session.
func runSearch(ctx context.Context, log logger.Interface, b boardOps, page Page, q Query, maxPages int, searchURL string) ([]models.Job, error) {
	maxPages = capPages(maxPages)

	log.Info("Starting search", "keywords", q.Keywords, "location", q.Location, "url", searchURL)
	if err := page.Navigate(ctx, searchURL); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", searchURL, err)
	}

	var jobs []models.Job
	seen := make(map[string]bool)

	for pageNum := 1; pageNum <= maxPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return jobs, err
		}

		if !page.WaitFor(ctx, b.listingSelector(), listingTimeout) {
			log.Info("No more results", "page", pageNum)
			break
		}

		html, err := page.HTML(ctx)
		if err != nil {
			log.Warn("Failed to read page", "page", pageNum, "error", err)
			break
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			log.Warn("Failed to parse page", "page", pageNum, "error", err)
			break
		}

		cards := b.cards(doc)
		if len(cards) == 0 {
			log.Info("No job cards found, stopping pagination", "page", pageNum)
			break
		}
		log.Info("Found job cards", "page", pageNum, "cards", len(cards))

		for _, card := range cards {
			job, ok := b.extract(card)
			if !ok {
				continue
			}
			if job.URL != "" {
				if seen[job.URL] {
					continue
				}
				seen[job.URL] = true
			}
			jobs = append(jobs, job)

			if q.Save != nil {
				if err := q.Save(ctx, job); err != nil {
					log.Warn("Failed to save job", "title", job.Title, "company", job.Company, "error", err)
				}
			}
		}

		if pageNum == maxPages {
			break
		}

		href, clickSel := b.next(doc, pageNum)
		switch {
		case href != "":
			if err := page.Navigate(ctx, absURL(b.base(), href)); err != nil {
				log.Info("Pagination ended", "page", pageNum, "error", err)
				return jobs, nil
			}
		case clickSel != "":
			if err := page.Click(ctx, clickSel); err != nil {
				log.Info("Pagination ended", "page", pageNum, "error", err)
				return jobs, nil
			}
		default:
			log.Info("No next page control, stopping", "page", pageNum)
			return jobs, nil
		}
	}

	log.Info("Search complete", "jobs", len(jobs))
	return jobs, nil
}

// collect flattens a selection into its individual nodes.
func collect(sel *goquery.Selection) []*goquery.Selection {
	out := make([]*goquery.Selection, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, s)
	})
	return out
}
