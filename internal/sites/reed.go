package sites

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/jobscout/internal/logger"
	"github.com/jonesrussell/jobscout/internal/models"
)

const reedBase = "https://www.reed.co.uk"

// reedEmployment maps the canonical employment vocabulary onto Reed's
// lowercase filter tokens.
var reedEmployment = map[string]string{
	"permanent": "permanent",
	"perm":      "permanent",
	"contract":  "contract",
	"temp":      "temp",
	"temporary": "temp",
	"part-time": "part-time",
	"part time": "part-time",
}

// Reed extracts listings from reed.co.uk. Cards carry data-qa attributes
// with legacy class names as fallbacks; the next-page control is usually a
// plain link whose text is "Next".
type Reed struct {
	log logger.Interface
}

func NewReed(log logger.Interface) *Reed {
	return &Reed{log: log.With("adapter", "reed")}
}

func (r *Reed) Name() string { return "reed" }
func (r *Reed) base() string { return reedBase }

func (r *Reed) Search(ctx context.Context, page Page, q Query, maxPages int) ([]models.Job, error) {
	params := url.Values{}
	params.Set("keywords", q.Keywords)
	params.Set("location", q.Location)
	params.Set("proximity", strconv.Itoa(q.Radius))
	if jt, ok := mapEmployment(q.EmploymentTypes, reedEmployment); ok {
		params.Set("jt", jt)
	}

	return runSearch(ctx, r.log, r, page, q, maxPages, reedBase+"/jobs?"+params.Encode())
}

func (r *Reed) listingSelector() string { return `article[data-qa="job-card"]` }

func (r *Reed) cards(doc *goquery.Document) []*goquery.Selection {
	return collect(doc.Find(`article[data-qa="job-card"]`))
}

func (r *Reed) extract(card *goquery.Selection) (models.Job, bool) {
	titleLink := firstSel(card, `h2 a, h3 a, [data-qa="job-card-title"] a`)
	if titleLink == nil {
		return models.Job{}, false
	}
	title := cleanText(titleLink.Text())
	if title == "" {
		return models.Job{}, false
	}

	location := firstText(card, `[data-qa="job-card-location"], .job-card__location`)
	typeText := firstText(card, `[data-qa="job-card-contract-type"]`)

	job := models.Job{
		Title:       title,
		Company:     orUnknown(firstText(card, `[data-qa="job-card-company"], .job-card__company`)),
		Location:    orUnknown(location),
		Description: firstText(card, `[data-qa="job-card-description"], .job-card__description`),
		Salary:      optional(firstText(card, `[data-qa="job-card-salary"], .job-card__salary`)),
		PostedDate:  optional(firstText(card, `[data-qa="job-card-posted-date"], .job-card__posted-by`)),
		URL:         absURL(reedBase, titleLink.AttrOr("href", "")),
		Source:      r.Name(),
		ScrapedAt:   time.Now().UTC(),
	}

	job.EmploymentType = employmentFromType(typeText)
	if job.EmploymentType == nil && containsAny(strings.ToLower(location), "remote", "home", "wfh") {
		job.EmploymentType = strPtr(models.EmploymentWFH)
	}
	return job, true
}

// next prefers the visible "Next" link, then the data-qa control, then any
// link pointing at the following pageno.
func (r *Reed) next(doc *goquery.Document, pageNum int) (string, string) {
	var textHref string
	doc.Find("a").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		if strings.EqualFold(cleanText(link.Text()), "next") {
			textHref = link.AttrOr("href", "")
			return false
		}
		return true
	})
	if textHref != "" {
		return textHref, ""
	}

	for _, sel := range []string{
		`a[data-qa="pagination-next"]`,
		fmt.Sprintf(`a[href*="pageno=%d"]`, pageNum+1),
	} {
		link := doc.Find(sel).First()
		if link.Length() == 0 {
			continue
		}
		if href := link.AttrOr("href", ""); href != "" {
			return href, ""
		}
		return "", sel
	}
	return "", ""
}
