package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/jobmatch/internal/linkedin"
	"github.com/spigell/jobmatch/internal/pipeline"
	"github.com/spigell/jobmatch/internal/resume"
	"github.com/spigell/jobmatch/internal/scoring"
)

const sampleConfig = `
search:
  keywords: " go developer "
  location: Berlin
  work-types: [remote, hybrid]
  count: 10
  posted-within: 24h
resume:
  path: cv.pdf
  vocabulary:
    - name: Temporal
      category: technical
      aliases: [temporal.io]
scrape:
  delay: 3s
  jitter: 0s
  max-failures: 2
  browser: true
scoring:
  half-life: 3
  neutral-skill: 0.4
  category-weights:
    soft: 0.5
rank:
  top: 5
  recency-tie-break: true
filters:
  companies: [Acme]
  exclude-file: excluded.json
ai:
  enabled: true
  gemini:
    api-key: secret
    model: gemini-2.5-flash
`

func TestGetConfig(t *testing.T) {
	viper.SetConfigType("yaml")
	require.NoError(t, viper.ReadConfig(strings.NewReader(sampleConfig)))
	t.Cleanup(func() {
		_ = viper.ReadConfig(strings.NewReader(""))
	})

	config, err := getConfig()
	require.NoError(t, err)

	assert.Equal(t, 10, config.Search.Count)
	assert.Equal(t, 24*time.Hour, config.Search.PostedWithin)
	assert.Equal(t, -1.0, config.Search.Years)
	assert.Nil(t, config.desiredYears())
	assert.Equal(t, "cv.pdf", config.Resume.Path)
	require.Len(t, config.Resume.Vocabulary, 1)
	assert.Equal(t, resume.CategoryTechnical, config.Resume.Vocabulary[0].Category)
	assert.Equal(t, 3*time.Second, config.Scrape.Delay)
	require.NotNil(t, config.Scrape.Jitter)
	assert.Equal(t, time.Duration(0), *config.Scrape.Jitter)
	assert.Equal(t, 2, config.Scrape.MaxFailures)
	assert.True(t, config.Scrape.Browser)
	assert.Equal(t, 3.0, config.Scoring.HalfLife)
	require.NotNil(t, config.Scoring.NeutralSkill)
	assert.Equal(t, 0.4, *config.Scoring.NeutralSkill)
	assert.Equal(t, 0.5, config.Scoring.CategoryWeights[resume.CategorySoft])
	assert.Equal(t, 5, config.Rank.Top)
	assert.True(t, config.Rank.RecencyTieBreak)
	assert.Equal(t, []string{"Acme"}, config.Filters.Companies)
	assert.Equal(t, "excluded.json", config.Filters.ExcludeFile)
	assert.Equal(t, "matched_jobs.csv", config.Output.CSV)
	require.NotNil(t, config.AI)
	assert.Equal(t, "secret", config.AI.Gemini.APIKey)

	params, err := config.searchParams()
	require.NoError(t, err)
	assert.Equal(t, "go developer", params.Keywords)
	assert.Equal(t, []linkedin.WorkType{linkedin.WorkTypeRemote, linkedin.WorkTypeHybrid}, params.WorkTypes)
}

func TestSearchParamsRejectsUnknownWorkType(t *testing.T) {
	config := &Config{Search: SearchConfig{Keywords: "go", WorkTypes: []string{"office"}}}

	_, err := config.searchParams()
	assert.Error(t, err)
}

func TestDesiredYears(t *testing.T) {
	config := &Config{Search: SearchConfig{Years: 0}}
	require.NotNil(t, config.desiredYears())
	assert.Equal(t, 0.0, *config.desiredYears())

	config.Search.Years = -1
	assert.Nil(t, config.desiredYears())
}

func newSession(t *testing.T) (*session, *bytes.Buffer, *observer.ObservedLogs) {
	t.Helper()

	a := &linkedin.Listing{ID: "1", Title: "Go Developer", Company: "Acme", Location: "Berlin", WorkType: linkedin.WorkTypeRemote, Link: "https://example.com/1"}
	b := &linkedin.Listing{ID: "2", Title: "SRE", Company: "Globex", Location: "Munich", WorkType: linkedin.WorkTypeOnsite, Link: "https://example.com/2"}
	c := &linkedin.Listing{ID: "3", Title: "Chef", Company: "Bakery", Link: "https://example.com/3"}

	core, logs := observer.New(zap.InfoLevel)
	out := &bytes.Buffer{}
	dir := t.TempDir()

	return &session{
		logger: zap.New(core),
		config: &Config{Output: OutputConfig{CSV: filepath.Join(dir, "out.csv")}},
		result: &pipeline.Result{
			RunID:    "run-1",
			Listings: &linkedin.Listings{Items: []*linkedin.Listing{a, b, c}},
			Ranked: []*scoring.MatchResult{
				{Listing: a, Score: 0.9},
				{Listing: b, Score: 0.5},
			},
		},
		out:         out,
		excludeFile: filepath.Join(dir, "excluded.json"),
	}, out, logs
}

func TestSessionShowTable(t *testing.T) {
	s, out, _ := newSession(t)

	require.NoError(t, s.handleAction(PromptShowTable))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "#"))
	assert.Contains(t, lines[0], "SCORE")
	assert.Contains(t, lines[1], "0.900")
	assert.Contains(t, lines[1], "Go Developer")
	assert.Contains(t, lines[2], "Globex")
}

func TestSessionWriteCSV(t *testing.T) {
	s, _, logs := newSession(t)

	require.NoError(t, s.handleAction(PromptWriteCSV))

	data, err := os.ReadFile(s.config.Output.CSV)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "score,date,title,company,location,type,link", lines[0])
	assert.Equal(t, 1, logs.FilterMessage("results written").Len())
}

func TestSessionWriteCSVEmpty(t *testing.T) {
	s, _, _ := newSession(t)
	s.result.Ranked = nil

	require.NoError(t, s.writeCSV())

	data, err := os.ReadFile(s.config.Output.CSV)
	require.NoError(t, err)
	assert.Equal(t, "score,date,title,company,location,type,link\n", string(data))
}

func TestSessionReportByCompany(t *testing.T) {
	s, _, logs := newSession(t)

	require.NoError(t, s.handleAction(PromptReportByCompany))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Message, `"Acme"`)
	assert.Contains(t, entries[0].Message, `"Globex"`)
	assert.NotContains(t, entries[0].Message, `"Bakery"`)
}

func TestSessionExitAndInvalid(t *testing.T) {
	s, _, _ := newSession(t)

	assert.ErrorIs(t, s.handleAction(PromptExit), errExit)
	assert.Error(t, s.handleAction("unknown"))
}

func TestSessionAppendToExcludeFile(t *testing.T) {
	s, _, _ := newSession(t)

	previous := &linkedin.ExcludedListings{Items: []*linkedin.ExcludedListing{{ID: "99"}}}
	require.NoError(t, previous.ToFile(s.excludeFile))

	require.NoError(t, s.appendToExcludeFile())

	excluded, err := linkedin.GetExcludedListingsFromFile(s.excludeFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"99", "1", "2"}, excluded.IDs())

	assert.Empty(t, s.result.Ranked)
	assert.Equal(t, 1, s.result.Listings.Len())
	assert.Equal(t, "3", s.result.Listings.Items[0].ID)
}

func TestSessionFindAndDescribe(t *testing.T) {
	s, _, logs := newSession(t)

	match := s.find("2")
	require.NotNil(t, match)
	assert.Nil(t, s.find("42"))

	s.describe(match)
	entry := logs.FilterMessage("listing details").All()
	require.Len(t, entry, 1)
	assert.Equal(t, "SRE", entry[0].ContextMap()["title"])
}
