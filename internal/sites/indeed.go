package sites

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/jobscout/internal/logger"
	"github.com/jonesrussell/jobscout/internal/models"
)

const indeedBase = "https://uk.indeed.com"

// indeedEmployment maps the canonical employment vocabulary onto Indeed's
// jt parameter tokens.
var indeedEmployment = map[string]string{
	"permanent": "permanent",
	"perm":      "permanent",
	"contract":  "contract",
	"temp":      "temporary",
	"temporary": "temporary",
	"part-time": "parttime",
	"part time": "parttime",
	"full-time": "fulltime",
	"full time": "fulltime",
}

// Indeed extracts listings from uk.indeed.com. The board rotates its markup
// frequently and guards aggressively against automation, so the cascades
// here are the longest and a card's detail URL may have to be rebuilt from
// its data-jk key.
type Indeed struct {
	log logger.Interface
}

func NewIndeed(log logger.Interface) *Indeed {
	return &Indeed{log: log.With("adapter", "indeed")}
}

func (i *Indeed) Name() string { return "indeed" }
func (i *Indeed) base() string { return indeedBase }

func (i *Indeed) Search(ctx context.Context, page Page, q Query, maxPages int) ([]models.Job, error) {
	params := url.Values{}
	params.Set("q", q.Keywords)
	params.Set("l", q.Location)
	params.Set("radius", strconv.Itoa(q.Radius))
	params.Set("sort", "date") // newest first
	if jt, ok := mapEmployment(q.EmploymentTypes, indeedEmployment); ok {
		params.Set("jt", jt)
	}

	return runSearch(ctx, i.log, i, page, q, maxPages, indeedBase+"/jobs?"+params.Encode())
}

func (i *Indeed) listingSelector() string {
	return ".job_seen_beacon, .jobsearch-ResultsList > li, [data-jk]"
}

func (i *Indeed) cards(doc *goquery.Document) []*goquery.Selection {
	cards := collect(doc.Find(".job_seen_beacon, [data-jk]"))
	if len(cards) == 0 {
		cards = collect(doc.Find(".jobsearch-ResultsList > li"))
	}
	return cards
}

func (i *Indeed) extract(card *goquery.Selection) (models.Job, bool) {
	titleLink := firstSel(card,
		"h2.jobTitle a",
		".jobTitle a",
		"a[data-jk]",
		"h2 a",
	)
	if titleLink == nil {
		return models.Job{}, false
	}
	title := cleanText(titleLink.Text())
	if title == "" {
		return models.Job{}, false
	}

	jobURL := absURL(indeedBase, titleLink.AttrOr("href", ""))
	if jobURL == "" {
		if jk := card.AttrOr("data-jk", ""); jk != "" {
			jobURL = indeedBase + "/viewjob?jk=" + jk
		}
	}

	location := firstText(card, `[data-testid="text-location"]`, ".companyLocation", ".location")

	var salary *string
	if text := firstText(card,
		`[data-testid="attribute_snippet_testid"]`,
		".salary-snippet-container",
		".metadata.salary-snippet-container",
	); looksLikeSalary(text) {
		salary = &text
	}

	job := models.Job{
		Title:       title,
		Company:     orUnknown(firstText(card, `[data-testid="company-name"]`, ".companyName", ".company")),
		Location:    orUnknown(location),
		Description: firstText(card, ".job-snippet", `[data-testid="jobDescriptionText"]`, ".jobCardShelfContainer"),
		Salary:      salary,
		PostedDate:  optional(firstText(card, ".date", `[data-testid="myJobsStateDate"]`, ".job-snippet .date")),
		URL:         jobURL,
		Source:      i.Name(),
		ScrapedAt:   time.Now().UTC(),
	}

	job.EmploymentType = i.employmentFromMetadata(card)
	if job.EmploymentType == nil && containsAny(strings.ToLower(location), "remote", "home", "hybrid") {
		job.EmploymentType = strPtr(models.EmploymentWFH)
	}
	return job, true
}

// employmentFromMetadata scans the card's metadata badges for a contract
// type. Indeed never labels the badge, so each one is text-matched.
func (i *Indeed) employmentFromMetadata(card *goquery.Selection) *string {
	var employment *string
	card.Find(".metadata div, .jobMetaDataGroup").EachWithBreak(func(_ int, meta *goquery.Selection) bool {
		t := strings.ToLower(meta.Text())
		switch {
		case strings.Contains(t, "contract"):
			employment = strPtr(models.EmploymentContract)
		case strings.Contains(t, "permanent"):
			employment = strPtr(models.EmploymentPermanent)
		case strings.Contains(t, "temp"):
			employment = strPtr(models.EmploymentTemporary)
		}
		return employment == nil
	})
	return employment
}

func (i *Indeed) next(doc *goquery.Document, _ int) (string, string) {
	for _, sel := range []string{
		`a[data-testid="pagination-page-next"]`,
		`a[aria-label="Next Page"]`,
		".np[data-pp]",
		`nav[aria-label="pagination"] a:last-child`,
	} {
		link := doc.Find(sel).First()
		if link.Length() == 0 {
			continue
		}
		if link.AttrOr("aria-disabled", "") == "true" {
			return "", ""
		}
		if href := link.AttrOr("href", ""); href != "" {
			return href, ""
		}
		return "", sel
	}
	return "", ""
}

// looksLikeSalary filters out badges like "Responsive employer" that share
// the salary slot; real salaries carry a currency sign or digits.
func looksLikeSalary(s string) bool {
	if s == "" {
		return false
	}
	if strings.Contains(s, "£") {
		return true
	}
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
