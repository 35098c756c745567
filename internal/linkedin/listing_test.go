package linkedin

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleListings() *Listings {
	return &Listings{Items: []*Listing{
		{ID: "1", Title: "Go Developer", Company: "Acme", Link: "https://example.com/1", WorkType: WorkTypeRemote, PostedText: "2 days ago"},
		{ID: "2", Title: "SRE", Company: "Globex", Link: "https://example.com/2", WorkType: WorkTypeOnsite},
		{ID: "3", Title: "Platform Engineer", Company: "acme", Link: "https://example.com/3", WorkType: WorkTypeHybrid, Requirement: "Senior"},
	}}
}

func TestExcludeByCompanyKeepsOrder(t *testing.T) {
	listings := sampleListings()

	excluded := listings.Exclude(ListingCompanyField, []string{" ACME "})

	assert.Equal(t, []string{"1", "3"}, excluded)
	require.Equal(t, 1, listings.Len())
	assert.Equal(t, "2", listings.Items[0].ID)
}

func TestExcludeByID(t *testing.T) {
	listings := sampleListings()

	excluded := listings.Exclude(ListingIDField, []string{"2", "404"})

	assert.Equal(t, []string{"2"}, excluded)
	assert.Nil(t, listings.FindByID("2"))
	assert.NotNil(t, listings.FindByID("3"))
	assert.Nil(t, listings.Exclude(ListingIDField, nil))
}

func TestRemoveByIndex(t *testing.T) {
	listings := sampleListings()

	listings.RemoveByIndex(0)

	assert.Equal(t, "2", listings.Items[0].ID)
	assert.Equal(t, "3", listings.Items[1].ID)
}

func TestReportByCompany(t *testing.T) {
	report := sampleListings().ReportByCompany()

	require.Len(t, report["Acme"], 1)
	assert.Equal(t, map[string]string{
		"title":     "Go Developer",
		"link":      "https://example.com/1",
		"location":  "",
		"work type": "Remote",
		"posted":    "2 days ago",
	}, report["Acme"][0])

	require.Len(t, report["acme"], 1)
	assert.Equal(t, "Senior", report["acme"][0]["requirement"])
}

func TestExcludedListingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "excluded.json")

	missing, err := GetExcludedListingsFromFile(path)
	require.NoError(t, err)
	assert.Empty(t, missing.Items)

	excluded := sampleListings().ToExcluded()
	require.NoError(t, excluded.ToFile(path))

	more := (&Listings{Items: []*Listing{{ID: "9", Company: "Hooli"}}}).ToExcluded()
	loaded, err := GetExcludedListingsFromFile(path)
	require.NoError(t, err)
	loaded.Append(more)
	require.NoError(t, loaded.ToFile(path))

	reloaded, err := GetExcludedListingsFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "9"}, reloaded.IDs())
	assert.Equal(t, "Globex", reloaded.Items[1].Company)
}

func TestParseWorkTypes(t *testing.T) {
	types, err := ParseWorkTypes([]string{"Remote, hybrid", "on-site", "remote"})
	require.NoError(t, err)
	assert.Equal(t, []WorkType{WorkTypeRemote, WorkTypeHybrid, WorkTypeOnsite}, types)

	types, err = ParseWorkTypes([]string{"any"})
	require.NoError(t, err)
	assert.Empty(t, types)

	_, err = ParseWorkTypes([]string{"freelance"})
	assert.Error(t, err)
}

func TestParseRelative(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		text   string
		expect time.Time
	}{
		{text: "3 hours ago", expect: now.Add(-3 * time.Hour)},
		{text: "1 day ago", expect: now.AddDate(0, 0, -1)},
		{text: "2 weeks ago", expect: now.AddDate(0, 0, -14)},
		{text: "Reposted 1 month ago", expect: now.AddDate(0, -1, 0)},
		{text: "Just now", expect: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)},
		{text: "Be an early applicant", expect: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expect, parseRelative(tt.text, now))
		})
	}
}

func TestListingIDFallbacks(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<div class="card"></div>`))
	require.NoError(t, err)
	card := doc.Find(".card")

	assert.Equal(t, "3912345678", listingID(card, "https://www.linkedin.com/jobs/view/go-developer-at-acme-3912345678"))

	derived := listingID(card, "https://jobs.example.com/posting/go-developer")
	assert.Len(t, derived, 36)
	assert.Equal(t, derived, listingID(card, "https://jobs.example.com/posting/go-developer"))

	assert.Empty(t, listingID(card, ""))
}

func TestParseCardsDropsIncompleteCards(t *testing.T) {
	client := New(nil, Options{}, nil)

	listings, err := client.parseCards(`
<li><div class="base-card"><h3 class="base-search-card__title">No link</h3></div></li>
<li><div class="base-card"><a class="base-card__full-link" href="https://example.com/jobs/view/1234567"></a></div></li>
<li><div class="job-search-card"><a href="https://example.com/jobs/view/7654321"></a><h3 class="job-search-card__title">Go Developer</h3></div></li>`, WorkTypeUnknown)
	require.NoError(t, err)

	require.Len(t, listings, 1)
	assert.Equal(t, "7654321", listings[0].ID)
	assert.Equal(t, "Go Developer", listings[0].Title)

	listings, err = client.parseCards("  \n ", WorkTypeUnknown)
	assert.NoError(t, err)
	assert.Empty(t, listings)

	_, err = client.parseCards("<p>Sign in</p>", WorkTypeUnknown)
	assert.ErrorIs(t, err, errNoCards)
}
