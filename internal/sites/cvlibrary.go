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

const cvlibraryBase = "https://www.cv-library.co.uk"

// cvlibraryEmployment maps the canonical employment vocabulary onto
// CV-Library's jt parameter tokens.
var cvlibraryEmployment = map[string]string{
	"permanent": "Permanent",
	"perm":      "Permanent",
	"contract":  "Contract",
	"temp":      "Temporary",
	"temporary": "Temporary",
	"part-time": "Part Time",
	"part time": "Part Time",
}

// CVLibrary extracts listings from cv-library.co.uk. The board renders
// several card templates, so every field goes through a selector cascade.
type CVLibrary struct {
	log logger.Interface
}

func NewCVLibrary(log logger.Interface) *CVLibrary {
	return &CVLibrary{log: log.With("adapter", "cvlibrary")}
}

func (c *CVLibrary) Name() string { return "cvlibrary" }
func (c *CVLibrary) base() string { return cvlibraryBase }

func (c *CVLibrary) Search(ctx context.Context, page Page, q Query, maxPages int) ([]models.Job, error) {
	params := url.Values{}
	params.Set("q", q.Keywords)
	params.Set("geo", q.Location)
	params.Set("distance", strconv.Itoa(q.Radius))
	if jt, ok := mapEmployment(q.EmploymentTypes, cvlibraryEmployment); ok {
		params.Set("jt", jt)
	}

	return runSearch(ctx, c.log, c, page, q, maxPages, cvlibraryBase+"/search-jobs?"+params.Encode())
}

func (c *CVLibrary) listingSelector() string { return ".results__item, .job-card, [data-job-id]" }

func (c *CVLibrary) cards(doc *goquery.Document) []*goquery.Selection {
	return collect(doc.Find(".results__item, .job-card, article[data-job-id]"))
}

func (c *CVLibrary) extract(card *goquery.Selection) (models.Job, bool) {
	titleLink := firstSel(card,
		".job__title a",
		"h2 a",
		".results__title a",
		"a[data-job-title]",
	)
	if titleLink == nil {
		return models.Job{}, false
	}
	title := cleanText(titleLink.Text())
	if title == "" {
		return models.Job{}, false
	}

	location := firstText(card, ".job__location", ".results__location", "[data-location]")
	typeText := firstText(card, ".job__type", ".results__type", "[data-job-type]")

	job := models.Job{
		Title:       title,
		Company:     orUnknown(firstText(card, ".job__company", ".results__company", "[data-company-name]")),
		Location:    orUnknown(location),
		Description: firstText(card, ".job__description", ".results__description", ".job-card__snippet"),
		Salary:      optional(firstText(card, ".job__salary", ".results__salary", "[data-salary]")),
		PostedDate:  optional(firstText(card, ".job__posted", ".results__posted", "[data-posted-date]")),
		URL:         absURL(cvlibraryBase, titleLink.AttrOr("href", "")),
		Source:      c.Name(),
		ScrapedAt:   time.Now().UTC(),
	}

	job.EmploymentType = employmentFromType(typeText)
	if job.EmploymentType == nil && containsAny(strings.ToLower(location), "remote", "home", "wfh") {
		job.EmploymentType = strPtr(models.EmploymentWFH)
	}
	return job, true
}

func (c *CVLibrary) next(doc *goquery.Document, _ int) (string, string) {
	for _, sel := range []string{
		"a.pagination__link--next",
		`a[rel="next"]`,
		".pagination__next a",
	} {
		link := doc.Find(sel).First()
		if link.Length() == 0 {
			continue
		}
		if strings.Contains(strings.ToLower(link.AttrOr("class", "")), "disabled") {
			return "", ""
		}
		if href := link.AttrOr("href", ""); href != "" {
			return href, ""
		}
		return "", sel
	}
	return "", ""
}
