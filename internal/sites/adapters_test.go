package sites

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/jobscout/internal/logger"
	"github.com/jonesrussell/jobscout/internal/models"
)

// fakePage serves canned HTML per URL so adapter logic runs without a
// browser.
type fakePage struct {
	docs    map[string]string
	current string
	visited []string
	clicks  []string
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	if _, ok := p.docs[url]; !ok {
		return fmt.Errorf("no response for %s", url)
	}
	p.current = url
	p.visited = append(p.visited, url)
	return nil
}

func (p *fakePage) WaitFor(_ context.Context, selector string, _ time.Duration) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.docs[p.current]))
	if err != nil {
		return false
	}
	return doc.Find(selector).Length() > 0
}

func (p *fakePage) HTML(context.Context) (string, error) {
	return p.docs[p.current], nil
}

func (p *fakePage) Click(_ context.Context, selector string) error {
	p.clicks = append(p.clicks, selector)
	return nil
}

func (p *fakePage) Location(context.Context) (string, error) {
	return p.current, nil
}

const totaljobsPage1 = `<html><body>
<div data-at="job-item">
  <a data-at="job-item-title" href="/job/123">Senior Python Developer</a>
  <span data-at="job-item-company-name">Acme Analytics</span>
  <span data-at="job-item-location">Manchester</span>
  <span data-at="job-item-salary-info">£65,000 per annum</span>
  <span data-at="job-item-job-type">Permanent</span>
  <span data-at="job-item-timeago">2 days ago</span>
  <div data-at="jobcard-content">Build data
    pipelines with Python.</div>
</div>
<div data-at="job-item">
  <span data-at="job-item-company-name">Cardless Ltd</span>
</div>
<a data-at="pagination-next" href="/jobs?page=2">Next</a>
</body></html>`

const totaljobsPage2 = `<html><body>
<div data-at="job-item">
  <a data-at="job-item-title" href="/job/456">Platform Engineer</a>
  <span data-at="job-item-location">Remote</span>
</div>
<div data-at="job-item">
  <a data-at="job-item-title" href="/job/456">Platform Engineer</a>
  <span data-at="job-item-location">Remote</span>
</div>
</body></html>`

func TestTotalJobsSearch(t *testing.T) {
	t.Parallel()

	searchURL := "https://www.totaljobs.com/jobs?l=Manchester&q=python&radius=10&s=1"
	page := &fakePage{docs: map[string]string{
		searchURL: totaljobsPage1,
		"https://www.totaljobs.com/jobs?page=2": totaljobsPage2,
	}}

	var saved []models.Job
	q := Query{
		Keywords: "python",
		Location: "Manchester",
		Radius:   10,
		Save: func(_ context.Context, job models.Job) error {
			saved = append(saved, job)
			return nil
		},
	}

	jobs, err := NewTotalJobs(logger.NewNoOp()).Search(context.Background(), page, q, 5)
	require.NoError(t, err)

	// One titleless card dropped on page one, one duplicate URL dropped
	// on page two.
	require.Len(t, jobs, 2)
	assert.Equal(t, []string{searchURL, "https://www.totaljobs.com/jobs?page=2"}, page.visited)
	assert.Equal(t, jobs, saved)

	first := jobs[0]
	assert.Equal(t, "Senior Python Developer", first.Title)
	assert.Equal(t, "Acme Analytics", first.Company)
	assert.Equal(t, "Manchester", first.Location)
	assert.Equal(t, "Build data pipelines with Python.", first.Description)
	assert.Equal(t, "https://www.totaljobs.com/job/123", first.URL)
	assert.Equal(t, "totaljobs", first.Source)
	assert.False(t, first.ScrapedAt.IsZero())
	require.NotNil(t, first.Salary)
	assert.Equal(t, "£65,000 per annum", *first.Salary)
	require.NotNil(t, first.JobType)
	assert.Equal(t, "Permanent", *first.JobType)
	require.NotNil(t, first.PostedDate)
	assert.Equal(t, "2 days ago", *first.PostedDate)
	require.NotNil(t, first.EmploymentType)
	assert.Equal(t, models.EmploymentPermanent, *first.EmploymentType)

	second := jobs[1]
	assert.Equal(t, "Platform Engineer", second.Title)
	assert.Equal(t, "Unknown", second.Company)
	assert.Equal(t, "Remote", second.Location)
	assert.Nil(t, second.Salary)
	assert.Nil(t, second.JobType)
	require.NotNil(t, second.EmploymentType)
	assert.Equal(t, models.EmploymentWFH, *second.EmploymentType)
}

func TestTotalJobsSearch_MaxPages(t *testing.T) {
	t.Parallel()

	searchURL := "https://www.totaljobs.com/jobs?l=Manchester&q=python&radius=10&s=1"
	page := &fakePage{docs: map[string]string{searchURL: totaljobsPage1}}

	jobs, err := NewTotalJobs(logger.NewNoOp()).Search(context.Background(), page,
		Query{Keywords: "python", Location: "Manchester", Radius: 10}, 1)
	require.NoError(t, err)

	assert.Len(t, jobs, 1)
	assert.Len(t, page.visited, 1)
}

func TestTotalJobsSearch_PaginationErrorIsBenign(t *testing.T) {
	t.Parallel()

	// Page two is never served; the run keeps page one's results.
	searchURL := "https://www.totaljobs.com/jobs?l=Manchester&q=python&radius=10&s=1"
	page := &fakePage{docs: map[string]string{searchURL: totaljobsPage1}}

	jobs, err := NewTotalJobs(logger.NewNoOp()).Search(context.Background(), page,
		Query{Keywords: "python", Location: "Manchester", Radius: 10}, 5)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestTotalJobsSearch_EmptyPageEndsRun(t *testing.T) {
	t.Parallel()

	// Page two loads but renders no cards: the normal end of results.
	searchURL := "https://www.totaljobs.com/jobs?l=Manchester&q=python&radius=10&s=1"
	page := &fakePage{docs: map[string]string{
		searchURL: totaljobsPage1,
		"https://www.totaljobs.com/jobs?page=2": `<html><body><p>No more jobs matched your search.</p></body></html>`,
	}}

	jobs, err := NewTotalJobs(logger.NewNoOp()).Search(context.Background(), page,
		Query{Keywords: "python", Location: "Manchester", Radius: 10}, 5)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
	assert.Len(t, page.visited, 2)
}

func TestTotalJobsSearch_FirstPageFailure(t *testing.T) {
	t.Parallel()

	page := &fakePage{docs: map[string]string{}}

	_, err := NewTotalJobs(logger.NewNoOp()).Search(context.Background(), page,
		Query{Keywords: "python", Location: "Manchester", Radius: 10}, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load")
}

const cvlibraryPage1 = `<html><body>
<div class="results__item">
  <h2 class="job__title"><a href="/job/azure-engineer-1">Azure DevOps Engineer</a></h2>
  <span class="job__company">Northern Cloud Ltd</span>
  <span class="job__location">Leeds</span>
  <span class="job__salary">£500 per day</span>
  <p class="job__description">Own the CI estate.</p>
  <span class="job__posted">Posted today</span>
  <span class="job__type">Contract</span>
</div>
<div class="job-card">
  <h2><a href="/job/python-dev-2">Python Developer</a></h2>
  <span class="results__company">Datawright</span>
  <span class="results__location">Remote (UK)</span>
  <p class="results__description">Backend services.</p>
</div>
<a class="pagination__link--next" href="/search-jobs?page=2">Next page</a>
</body></html>`

const cvlibraryPage2 = `<html><body>
<div class="results__item">
  <h2 class="job__title"><a href="/job/ai-lead-3">AI Team Lead</a></h2>
  <span class="job__company">Brightloop</span>
  <span class="job__location">Manchester</span>
</div>
<a class="pagination__link--next disabled" href="/search-jobs?page=3">Next page</a>
</body></html>`

func TestCVLibrarySearch(t *testing.T) {
	t.Parallel()

	searchURL := "https://www.cv-library.co.uk/search-jobs?distance=10&geo=London&jt=Contract&q=python"
	page := &fakePage{docs: map[string]string{
		searchURL: cvlibraryPage1,
		"https://www.cv-library.co.uk/search-jobs?page=2": cvlibraryPage2,
	}}

	q := Query{
		Keywords:        "python",
		Location:        "London",
		Radius:          10,
		EmploymentTypes: []string{"wfh", "contract"},
		// Save failures must not drop records from the run.
		Save: func(context.Context, models.Job) error {
			return errors.New("store closed")
		},
	}

	jobs, err := NewCVLibrary(logger.NewNoOp()).Search(context.Background(), page, q, 5)
	require.NoError(t, err)

	// The disabled next control on page two stops pagination.
	require.Len(t, jobs, 3)
	assert.Len(t, page.visited, 2)

	first := jobs[0]
	assert.Equal(t, "Azure DevOps Engineer", first.Title)
	assert.Equal(t, "Northern Cloud Ltd", first.Company)
	assert.Equal(t, "Leeds", first.Location)
	assert.Equal(t, "https://www.cv-library.co.uk/job/azure-engineer-1", first.URL)
	assert.Equal(t, "cvlibrary", first.Source)
	assert.Nil(t, first.JobType)
	require.NotNil(t, first.EmploymentType)
	assert.Equal(t, models.EmploymentContract, *first.EmploymentType)

	second := jobs[1]
	assert.Equal(t, "Python Developer", second.Title)
	assert.Equal(t, "Datawright", second.Company)
	require.NotNil(t, second.EmploymentType)
	assert.Equal(t, models.EmploymentWFH, *second.EmploymentType)
	assert.Nil(t, second.Salary)
}

const reedPage1 = `<html><body>
<article data-qa="job-card">
  <h3><a href="/jobs/senior-ai-engineer/55001">Senior AI Engineer</a></h3>
  <div data-qa="job-card-company">Quill & Byte</div>
  <div data-qa="job-card-location">London</div>
  <div data-qa="job-card-salary">£90,000 per annum</div>
  <div data-qa="job-card-description">Ship LLM features.</div>
  <div data-qa="job-card-posted-date">Yesterday</div>
  <div data-qa="job-card-contract-type">Permanent</div>
</article>
<article data-qa="job-card">
  <div class="job-card__company">Unlabelled Co</div>
</article>
<a href="/jobs?keywords=ai&pageno=2">Next</a>
</body></html>`

const reedPage2 = `<html><body>
<article data-qa="job-card">
  <h2><a href="/jobs/ml-engineer/55002">ML Engineer</a></h2>
  <div class="job-card__location">Home based</div>
</article>
</body></html>`

func TestReedSearch(t *testing.T) {
	t.Parallel()

	searchURL := "https://www.reed.co.uk/jobs?jt=permanent&keywords=ai&location=London&proximity=10"
	page := &fakePage{docs: map[string]string{
		searchURL: reedPage1,
		"https://www.reed.co.uk/jobs?keywords=ai&pageno=2": reedPage2,
	}}

	q := Query{
		Keywords:        "ai",
		Location:        "London",
		Radius:          10,
		EmploymentTypes: []string{"permanent"},
	}

	jobs, err := NewReed(logger.NewNoOp()).Search(context.Background(), page, q, 5)
	require.NoError(t, err)

	require.Len(t, jobs, 2)
	assert.Equal(t, []string{searchURL, "https://www.reed.co.uk/jobs?keywords=ai&pageno=2"}, page.visited)

	first := jobs[0]
	assert.Equal(t, "Senior AI Engineer", first.Title)
	assert.Equal(t, "Quill & Byte", first.Company)
	assert.Equal(t, "reed", first.Source)
	require.NotNil(t, first.Salary)
	assert.Equal(t, "£90,000 per annum", *first.Salary)
	require.NotNil(t, first.EmploymentType)
	assert.Equal(t, models.EmploymentPermanent, *first.EmploymentType)

	second := jobs[1]
	assert.Equal(t, "ML Engineer", second.Title)
	assert.Equal(t, "Unknown", second.Company)
	assert.Equal(t, "Home based", second.Location)
	require.NotNil(t, second.EmploymentType)
	assert.Equal(t, models.EmploymentWFH, *second.EmploymentType)
}

const indeedPage1 = `<html><body>
<div class="job_seen_beacon" data-jk="abc123">
  <h2 class="jobTitle"><a>Data Engineer</a></h2>
  <span data-testid="company-name">Brightstack</span>
  <div data-testid="text-location">Hybrid work in Leeds</div>
  <div data-testid="attribute_snippet_testid">£50,000 a year</div>
  <div class="job-snippet">Own the warehouse.</div>
  <span class="date">Posted 3 days ago</span>
</div>
<div class="job_seen_beacon" data-jk="def456">
  <h2 class="jobTitle"><a href="/rc/clk?jk=def456">Support Analyst</a></h2>
  <span class="companyName">Deskside</span>
  <div class="companyLocation">Sheffield</div>
  <div data-testid="attribute_snippet_testid">Responsive employer</div>
  <div class="metadata"><div>Permanent</div></div>
</div>
<a data-testid="pagination-page-next" aria-disabled="true" href="/jobs?start=10">Next</a>
</body></html>`

func TestIndeedSearch(t *testing.T) {
	t.Parallel()

	searchURL := "https://uk.indeed.com/jobs?jt=permanent&l=Leeds&q=data&radius=10&sort=date"
	page := &fakePage{docs: map[string]string{searchURL: indeedPage1}}

	q := Query{
		Keywords:        "data",
		Location:        "Leeds",
		Radius:          10,
		EmploymentTypes: []string{"permanent"},
	}

	jobs, err := NewIndeed(logger.NewNoOp()).Search(context.Background(), page, q, 5)
	require.NoError(t, err)

	// The disabled next control ends the run after one page.
	require.Len(t, jobs, 2)
	assert.Len(t, page.visited, 1)

	first := jobs[0]
	assert.Equal(t, "Data Engineer", first.Title)
	assert.Equal(t, "Brightstack", first.Company)
	// No title href: the URL is rebuilt from the card's job key.
	assert.Equal(t, "https://uk.indeed.com/viewjob?jk=abc123", first.URL)
	assert.Equal(t, "indeed", first.Source)
	require.NotNil(t, first.Salary)
	assert.Equal(t, "£50,000 a year", *first.Salary)
	require.NotNil(t, first.EmploymentType)
	assert.Equal(t, models.EmploymentWFH, *first.EmploymentType)

	second := jobs[1]
	assert.Equal(t, "Support Analyst", second.Title)
	assert.Equal(t, "https://uk.indeed.com/rc/clk?jk=def456", second.URL)
	// "Responsive employer" is not a salary.
	assert.Nil(t, second.Salary)
	require.NotNil(t, second.EmploymentType)
	assert.Equal(t, models.EmploymentPermanent, *second.EmploymentType)
}
