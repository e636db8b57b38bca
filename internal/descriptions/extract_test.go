package descriptions

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLDPage(t *testing.T, data any) []byte {
	t.Helper()

	payload, err := json.Marshal(data)
	require.NoError(t, err)
	return []byte(`<html><head><script type="application/ld+json">` +
		string(payload) + `</script></head><body><p>Apply now.</p></body></html>`)
}

func TestExtractDescription_JSONLD(t *testing.T) {
	t.Parallel()

	rawDesc := "<p>We are hiring a senior engineer to own our data platform.</p>" +
		strings.Repeat("<li>Build &amp; run ingestion pipelines.</li>", 8)
	wantDesc := "We are hiring a senior engineer to own our data platform." +
		strings.Repeat(" Build & run ingestion pipelines.", 8)

	posting := map[string]any{"@type": "JobPosting", "description": rawDesc}

	t.Run("bare object", func(t *testing.T) {
		t.Parallel()
		got := ExtractDescription(jsonLDPage(t, posting), "reed")
		assert.Equal(t, wantDesc, got)
	})

	t.Run("array", func(t *testing.T) {
		t.Parallel()
		page := jsonLDPage(t, []any{
			map[string]any{"@type": "Organization", "name": "Acme"},
			posting,
		})
		assert.Equal(t, wantDesc, ExtractDescription(page, "reed"))
	})

	t.Run("graph envelope", func(t *testing.T) {
		t.Parallel()
		page := jsonLDPage(t, map[string]any{
			"@context": "https://schema.org",
			"@graph":   []any{posting},
		})
		assert.Equal(t, wantDesc, ExtractDescription(page, "reed"))
	})

	t.Run("short posting falls through", func(t *testing.T) {
		t.Parallel()
		page := jsonLDPage(t, map[string]any{"@type": "JobPosting", "description": "Too short."})
		assert.Empty(t, ExtractDescription(page, "reed"))
	})

	t.Run("invalid json ignored", func(t *testing.T) {
		t.Parallel()
		page := []byte(`<html><head><script type="application/ld+json">{nope</script></head><body></body></html>`)
		assert.Empty(t, ExtractDescription(page, "reed"))
	})
}

func TestExtractDescription_SiteSelectors(t *testing.T) {
	t.Parallel()

	long := strings.TrimSpace(strings.Repeat("Deliver resilient scraping infrastructure. ", 6))
	page := []byte(`<html><body>
		<div data-at="job-description">See below</div>
		<div data-at="job-description">` + long + `</div>
	</body></html>`)

	// The longest matching block wins, not the first.
	assert.Equal(t, long, ExtractDescription(page, "totaljobs"))
}

func TestExtractDescription_GenericSelectors(t *testing.T) {
	t.Parallel()

	long := strings.TrimSpace(strings.Repeat("Own the release train end to end. ", 8))
	page := []byte(`<html><body><section class="description">` + long + `</section></body></html>`)

	// No source hint: the generic list still finds it.
	assert.Equal(t, long, ExtractDescription(page, ""))
}

func TestExtractDescription_BodyFallback(t *testing.T) {
	t.Parallel()

	para := strings.TrimSpace(strings.Repeat("The role covers ingestion, enrichment, and review tooling. ", 12))
	page := []byte(`<html><body>
		<nav>Home Jobs Sign in</nav>
		<script>var tracking = true;</script>
		<article><p>` + para + `</p></article>
		<footer>Copyright</footer>
	</body></html>`)

	got := ExtractDescription(page, "totaljobs")
	assert.Contains(t, got, "ingestion, enrichment, and review tooling")
	assert.NotContains(t, got, "tracking")
	assert.NotContains(t, got, "Sign in")
	assert.NotContains(t, got, "Copyright")
}

func TestExtractDescription_NothingUsable(t *testing.T) {
	t.Parallel()

	page := []byte(`<html><body><p>Gone.</p></body></html>`)
	assert.Empty(t, ExtractDescription(page, "indeed"))
}

func TestCleanDescription(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"tags", "<p>Hello<br/>world</p>", "Hello world"},
		{"entities", "Tea &amp; biscuits", "Tea & biscuits"},
		{"escaped markup", "&lt;p&gt;Hi there&lt;/p&gt;", "Hi there"},
		{"whitespace", "  a\n\n  b\tc  ", "a b c"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, cleanDescription(tt.in))
		})
	}
}

func TestDetectSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{"https://www.totaljobs.com/job/123", "totaljobs"},
		{"https://www.reed.co.uk/jobs/456", "reed"},
		{"https://uk.indeed.com/viewjob?jk=abc", "indeed"},
		{"https://www.cv-library.co.uk/job/789", "cvlibrary"},
		{"https://jobs.cvlibrary.example/1", "cvlibrary"},
		{"https://example.com/job", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, detectSource(tt.url), tt.url)
	}
}
