// Package ranking orders scored listings and renders them as rows or CSV.
package ranking

import (
	"cmp"
	"encoding/csv"
	"io"
	"slices"
	"strconv"

	"github.com/spigell/jobmatch/internal/scoring"
)

const DefaultTop = 20

// Header is the column order of both the table and the CSV export.
var Header = []string{"score", "date", "title", "company", "location", "type", "link"}

type Options struct {
	// Top keeps the first N results; 0 selects DefaultTop, negative keeps all.
	Top int `mapstructure:"top"`
	// RecencyTieBreak orders equal scores by newer posting first. Undated
	// listings follow dated ones and keep scrape order among themselves.
	RecencyTieBreak bool `mapstructure:"recency-tie-break"`
}

// Rank returns results sorted by descending score. The sort is stable, so
// equal scores keep scrape order unless the recency tie-break applies.
func Rank(results []*scoring.MatchResult, opts Options) []*scoring.MatchResult {
	ranked := slices.Clone(results)

	slices.SortStableFunc(ranked, func(a, b *scoring.MatchResult) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if !opts.RecencyTieBreak {
			return 0
		}

		ta, tb := a.Listing.PostedAt, b.Listing.PostedAt
		switch {
		case ta.IsZero() && tb.IsZero():
			return 0
		case ta.IsZero():
			return 1
		case tb.IsZero():
			return -1
		default:
			return tb.Compare(ta)
		}
	})

	top := opts.Top
	if top == 0 {
		top = DefaultTop
	}
	if top > 0 && len(ranked) > top {
		ranked = ranked[:top]
	}

	return ranked
}

// Row renders one result in Header order.
func Row(r *scoring.MatchResult) []string {
	l := r.Listing

	date := l.PostedText
	if !l.PostedAt.IsZero() {
		date = l.PostedAt.Format("2006-01-02")
	}

	return []string{
		strconv.FormatFloat(r.Score, 'f', 3, 64),
		date,
		l.Title,
		l.Company,
		l.Location,
		string(l.WorkType),
		l.Link,
	}
}

func Table(results []*scoring.MatchResult) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, Row(r))
	}
	return rows
}

// WriteCSV writes the header and one row per result. An empty input yields
// the header alone.
func WriteCSV(w io.Writer, results []*scoring.MatchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	if err := cw.WriteAll(Table(results)); err != nil {
		return err
	}
	return cw.Error()
}
