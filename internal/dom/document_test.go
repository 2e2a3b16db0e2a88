package dom

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"profilescraper/internal/scraper"
)

const profileFixture = `
<html><body>
  <h1 class="headline">Jane Doe</h1>
  <div class="title">Staff Engineer</div>
  <img class="avatar" src="https://cdn.example.com/jane.jpg">
  <span class="connections">500+ connections</span>
  <ul class="skills">
    <li>Go</li>
    <li>Rust</li>
  </ul>
  <div class="endorsements">
    <span class="skill-pill">Go</span>
    <span class="skill-pill">Kubernetes</span>
  </div>
</body></html>`

func TestQueryOneText(t *testing.T) {
	t.Parallel()

	doc, err := Parse(profileFixture)
	require.NoError(t, err)

	value, found, err := doc.QueryOne(context.Background(), "h1.headline", "")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Jane Doe", value)
}

func TestQueryOneAttribute(t *testing.T) {
	t.Parallel()

	doc, err := Parse(profileFixture)
	require.NoError(t, err)

	value, found, err := doc.QueryOne(context.Background(), "img.avatar", "src")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "https://cdn.example.com/jane.jpg", value)
}

func TestQueryOneNoMatch(t *testing.T) {
	t.Parallel()

	doc, err := Parse(profileFixture)
	require.NoError(t, err)

	_, found, err := doc.QueryOne(context.Background(), "h2.missing", "")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestQueryAllDocumentOrder(t *testing.T) {
	t.Parallel()

	doc, err := Parse(profileFixture)
	require.NoError(t, err)

	values, err := doc.QueryAll(context.Background(), "ul.skills li", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Rust"}, values)
}

func TestInvalidSelectorIsError(t *testing.T) {
	t.Parallel()

	doc, err := Parse(profileFixture)
	require.NoError(t, err)

	_, _, err = doc.QueryOne(context.Background(), "h1[", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile selector")

	_, err = doc.QueryAll(context.Background(), "h1[", "")
	require.Error(t, err)
}

// The full rule set applied over a snapshot exercises the same path the
// offline extraction endpoint uses.
func TestExtractionOverSnapshot(t *testing.T) {
	t.Parallel()

	doc, err := Parse(profileFixture)
	require.NoError(t, err)

	rules := scraper.RuleSet{
		Name: scraper.Rule{Field: "name", Candidates: []scraper.Candidate{
			{Selector: "h1.primary"},
			{Selector: "h1.headline"},
		}},
		Title: scraper.Rule{Field: "title", Candidates: []scraper.Candidate{
			{Selector: "div.title"},
		}},
		Picture: scraper.Rule{Field: "profilePictureUrl", Candidates: []scraper.Candidate{
			{Selector: "img.avatar", Attr: "src"},
		}},
		Connections: scraper.Rule{Field: "connections", Candidates: []scraper.Candidate{
			{Selector: "span.connections"},
		}},
		Skills: scraper.Rule{Field: "skills", Candidates: []scraper.Candidate{
			{Selector: "ul.skills li"},
			{Selector: "span.skill-pill"},
		}},
	}
	extractor := scraper.NewExtractor(rules, zap.NewNop())

	profile, err := extractor.ExtractAll(context.Background(), doc)
	require.NoError(t, err)

	require.NotNil(t, profile.Name)
	assert.Equal(t, "Jane Doe", *profile.Name, "second candidate matches after the first misses")
	require.NotNil(t, profile.Title)
	assert.Equal(t, "Staff Engineer", *profile.Title)
	require.NotNil(t, profile.ProfilePictureURL)
	assert.Equal(t, "https://cdn.example.com/jane.jpg", *profile.ProfilePictureURL)
	require.NotNil(t, profile.Connections)
	assert.Equal(t, "500", *profile.Connections)
	assert.Equal(t, []string{"Go", "Rust", "Kubernetes"}, profile.Skills,
		"duplicate skill across selector chains contributes once")
}
