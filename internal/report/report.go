package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/IshaanNene/feedpulse/internal/types"
)

// DefaultTopAuthors is the number of authors listed by default.
const DefaultTopAuthors = 10

// Count is one row of a frequency table.
type Count struct {
	Key string `json:"key"`
	N   int    `json:"count"`
}

// Summary aggregates a dataset for display.
type Summary struct {
	Total      int     `json:"total"`
	Sentiments []Count `json:"sentiments"`
	TopAuthors []Count `json:"top_authors"`
	Daily      []Count `json:"daily"`
	Undated    int     `json:"undated"`
}

// Summarize computes the sentiment distribution, the topN most active
// authors and posts per day for timestamps that parse as dates.
func Summarize(ds *types.Dataset, topN int) Summary {
	s := Summary{Total: ds.Len()}

	bySentiment := map[types.Sentiment]int{}
	byAuthor := map[string]int{}
	firstSeen := map[string]int{}
	byDay := map[string]int{}

	for i, rec := range ds.Records {
		bySentiment[rec.Sentiment]++

		if _, ok := firstSeen[rec.Author]; !ok {
			firstSeen[rec.Author] = i
		}
		byAuthor[rec.Author]++

		if day, ok := ParseDate(rec.Timestamp); ok {
			byDay[day.Format(time.DateOnly)]++
		} else {
			s.Undated++
		}
	}

	for _, label := range []types.Sentiment{types.Positive, types.Neutral, types.Negative} {
		s.Sentiments = append(s.Sentiments, Count{Key: label.String(), N: bySentiment[label]})
	}

	for author, n := range byAuthor {
		s.TopAuthors = append(s.TopAuthors, Count{Key: author, N: n})
	}
	sort.Slice(s.TopAuthors, func(i, j int) bool {
		a, b := s.TopAuthors[i], s.TopAuthors[j]
		if a.N != b.N {
			return a.N > b.N
		}
		return firstSeen[a.Key] < firstSeen[b.Key]
	})
	if topN > 0 && len(s.TopAuthors) > topN {
		s.TopAuthors = s.TopAuthors[:topN]
	}

	for day, n := range byDay {
		s.Daily = append(s.Daily, Count{Key: day, N: n})
	}
	sort.Slice(s.Daily, func(i, j int) bool { return s.Daily[i].Key < s.Daily[j].Key })

	return s
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateTime,
	time.DateOnly,
	"Jan 2, 2006",
	"January 2, 2006",
	"01/02/2006",
}

// ParseDate parses absolute timestamps. Relative ones such as "2d" are rejected.
func ParseDate(ts string) (time.Time, bool) {
	ts = strings.TrimSpace(ts)
	if ts == "" || ts == types.NoTimestamp {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Render writes the summary as tables.
func Render(w io.Writer, s Summary) {
	fmt.Fprintf(w, "Posts: %d\n\n", s.Total)

	sentiments := newTable(w, "Sentiment Distribution", table.Row{"Sentiment", "Posts", "Share"})
	for _, c := range s.Sentiments {
		sentiments.AppendRow(table.Row{c.Key, c.N, share(c.N, s.Total)})
	}
	sentiments.Render()
	fmt.Fprintln(w)

	authors := newTable(w, fmt.Sprintf("Top %d Most Active Authors", len(s.TopAuthors)), table.Row{"#", "Author", "Posts"})
	for i, c := range s.TopAuthors {
		authors.AppendRow(table.Row{i + 1, c.Key, c.N})
	}
	authors.Render()
	fmt.Fprintln(w)

	daily := newTable(w, "Posting Activity", table.Row{"Date", "Posts"})
	for _, c := range s.Daily {
		daily.AppendRow(table.Row{c.Key, c.N})
	}
	if s.Undated > 0 {
		daily.AppendFooter(table.Row{"undated", s.Undated})
	}
	daily.Render()
}

func newTable(w io.Writer, title string, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.AppendHeader(header)
	t.SetStyle(table.StyleRounded)
	return t
}

func share(n, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(n)/float64(total))
}
