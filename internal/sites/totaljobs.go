package sites

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/jobscout/internal/logger"
	"github.com/jonesrussell/jobscout/internal/models"
)

const totaljobsBase = "https://www.totaljobs.com"

// TotalJobs extracts listings from totaljobs.com. The board marks every
// field with a data-at attribute, so the selector cascades are short. It
// exposes no employment-type query filter; employment is inferred per card.
type TotalJobs struct {
	log logger.Interface
}

func NewTotalJobs(log logger.Interface) *TotalJobs {
	return &TotalJobs{log: log.With("adapter", "totaljobs")}
}

func (t *TotalJobs) Name() string { return "totaljobs" }
func (t *TotalJobs) base() string { return totaljobsBase }

func (t *TotalJobs) Search(ctx context.Context, page Page, q Query, maxPages int) ([]models.Job, error) {
	params := url.Values{}
	params.Set("q", q.Keywords)
	params.Set("l", q.Location)
	params.Set("radius", strconv.Itoa(q.Radius))
	params.Set("s", "1") // sort by relevance

	return runSearch(ctx, t.log, t, page, q, maxPages, totaljobsBase+"/jobs?"+params.Encode())
}

func (t *TotalJobs) listingSelector() string { return `[data-at="job-item"]` }

func (t *TotalJobs) cards(doc *goquery.Document) []*goquery.Selection {
	return collect(doc.Find(`[data-at="job-item"]`))
}

func (t *TotalJobs) extract(card *goquery.Selection) (models.Job, bool) {
	titleLink := firstSel(card, `[data-at="job-item-title"]`)
	if titleLink == nil {
		return models.Job{}, false
	}
	title := cleanText(titleLink.Text())
	if title == "" {
		return models.Job{}, false
	}

	location := firstText(card, `[data-at="job-item-location"]`)
	jobType := firstText(card, `[data-at="job-item-job-type"]`)

	job := models.Job{
		Title:       title,
		Company:     orUnknown(firstText(card, `[data-at="job-item-company-name"]`)),
		Location:    orUnknown(location),
		Description: firstText(card, `[data-at="jobcard-content"]`),
		Salary:      optional(firstText(card, `[data-at="job-item-salary-info"]`)),
		JobType:     optional(jobType),
		PostedDate:  optional(firstText(card, `[data-at="job-item-timeago"]`)),
		URL:         absURL(totaljobsBase, titleLink.AttrOr("href", "")),
		Source:      t.Name(),
		ScrapedAt:   time.Now().UTC(),
	}

	job.EmploymentType = employmentFromType(jobType)
	if job.EmploymentType == nil && containsAny(strings.ToLower(location), "remote", "home", "wfh") {
		job.EmploymentType = strPtr(models.EmploymentWFH)
	}
	return job, true
}

func (t *TotalJobs) next(doc *goquery.Document, _ int) (string, string) {
	for _, sel := range []string{
		`a[data-at="pagination-next"]`,
		`a[rel="next"]`,
		`a[aria-label="Next"]`,
	} {
		link := doc.Find(sel).First()
		if link.Length() == 0 {
			continue
		}
		if strings.Contains(strings.ToLower(link.AttrOr("class", "")), "disabled") ||
			link.AttrOr("aria-disabled", "") == "true" {
			return "", ""
		}
		if href := link.AttrOr("href", ""); href != "" {
			return href, ""
		}
		return "", sel
	}
	return "", ""
}
