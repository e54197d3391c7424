package pipeline

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/IshaanNene/feedpulse/internal/config"
	"github.com/IshaanNene/feedpulse/internal/observability"
	"github.com/IshaanNene/feedpulse/internal/sentiment"
	"github.com/IshaanNene/feedpulse/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func str(s string) *string { return &s }

func candidate(i int, author, content *string) types.Candidate {
	return types.Candidate{Index: i, Author: author, Content: content}
}

func newAggregator(score float64, p *Pipeline) (*Aggregator, *observability.Stats) {
	stats := observability.NewStats(testLogger)
	clf := sentiment.NewClassifier(sentiment.StaticScorer(score), testLogger)
	return NewAggregator(clf, p, stats, testLogger), stats
}

// --- Aggregator ---

func TestAggregateBuildsRecord(t *testing.T) {
	agg, stats := newAggregator(0.6, nil)

	ds := agg.Aggregate([]types.Candidate{candidate(0, str("Jane Doe"), str("Great news!"))})
	if ds.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", ds.Len())
	}

	want := types.Record{Author: "Jane Doe", Content: "Great news!", Sentiment: types.Positive, Timestamp: "N/A"}
	if ds.Records[0] != want {
		t.Errorf("expected %+v, got %+v", want, ds.Records[0])
	}
	if got := ds.Records[0].Sentiment.String(); got != "Positive" {
		t.Errorf("expected label 'Positive', got %q", got)
	}
	if stats.RecordsEmitted.Load() != 1 {
		t.Errorf("expected 1 emitted record, got %d", stats.RecordsEmitted.Load())
	}
}

func TestAggregateMissingContent(t *testing.T) {
	agg, stats := newAggregator(0.6, nil)
	ds := &types.Dataset{}

	before := ds.Len()
	reason := agg.Add(ds, candidate(0, str("Jane Doe"), nil))

	if reason != ReasonMissingContent {
		t.Errorf("expected %q, got %q", ReasonMissingContent, reason)
	}
	if ds.Len() != before {
		t.Errorf("dataset length changed: %d -> %d", before, ds.Len())
	}
	if got := stats.Discards(ReasonMissingContent); got != 1 {
		t.Errorf("expected missing-content counter 1, got %d", got)
	}
}

func TestAggregateDiscardReasons(t *testing.T) {
	failing := sentiment.NewClassifier(sentiment.StaticScorer(2), testLogger)

	tests := []struct {
		name   string
		c      types.Candidate
		clf    Classifier
		reason string
	}{
		{"missing author", candidate(0, nil, str("text")), nil, ReasonMissingAuthor},
		{"empty author", candidate(0, str("  "), str("text")), nil, ReasonEmptyAuthor},
		{"missing content", candidate(0, str("A"), nil), nil, ReasonMissingContent},
		{"empty content", candidate(0, str("A"), str("")), nil, ReasonEmptyContent},
		{"whitespace content", candidate(0, str("A"), str(" \n\t ")), nil, ReasonEmptyContent},
		{"classifier failure", candidate(0, str("A"), str("text")), failing, ReasonClassifierFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg, stats := newAggregator(0.1, nil)
			if tt.clf != nil {
				agg = NewAggregator(tt.clf, nil, stats, testLogger)
			}
			ds := &types.Dataset{}
			if got := agg.Add(ds, tt.c); got != tt.reason {
				t.Errorf("expected %q, got %q", tt.reason, got)
			}
			if ds.Len() != 0 {
				t.Error("invalid candidate must not produce a record")
			}
			if stats.Discards(tt.reason) != 1 {
				t.Errorf("expected %q counter 1", tt.reason)
			}
		})
	}
}

func TestAggregatePreservesOrder(t *testing.T) {
	agg, stats := newAggregator(0, nil)

	var candidates []types.Candidate
	for i := 0; i < 20; i++ {
		if i%3 == 0 {
			candidates = append(candidates, candidate(i, str("x"), str("   ")))
			continue
		}
		candidates = append(candidates, candidate(i, str("author"), str(strings.Repeat("z", i))))
	}

	ds := agg.Aggregate(candidates)
	if ds.Len() != 13 {
		t.Fatalf("expected 13 records, got %d", ds.Len())
	}
	prev := 0
	for _, r := range ds.Records {
		if len(r.Content) <= prev {
			t.Fatalf("records out of arrival order: %d after %d", len(r.Content), prev)
		}
		prev = len(r.Content)
	}
	if stats.Discards(ReasonEmptyContent) != 7 {
		t.Errorf("expected 7 empty-content discards, got %d", stats.Discards(ReasonEmptyContent))
	}
}

func TestAggregateKeepsDuplicatesByDefault(t *testing.T) {
	agg, _ := newAggregator(0, nil)
	c := candidate(0, str("A"), str("same"))
	ds := agg.Aggregate([]types.Candidate{c, c})
	if ds.Len() != 2 {
		t.Errorf("duplicates must be kept without dedup, got %d records", ds.Len())
	}
}

func TestAggregateTimestamp(t *testing.T) {
	agg, _ := newAggregator(0, nil)
	c := candidate(0, str("A"), str("text"))
	c.Timestamp = str("  2d  ")
	blank := candidate(1, str("A"), str("text"))
	blank.Timestamp = str("   ")

	ds := agg.Aggregate([]types.Candidate{c, blank})
	if ds.Records[0].Timestamp != "2d" {
		t.Errorf("expected trimmed timestamp, got %q", ds.Records[0].Timestamp)
	}
	if ds.Records[1].Timestamp != types.NoTimestamp {
		t.Errorf("blank timestamp should become N/A, got %q", ds.Records[1].Timestamp)
	}
}

func TestAggregateNormalizesContent(t *testing.T) {
	agg, _ := newAggregator(-0.4, nil)
	ds := agg.Aggregate([]types.Candidate{candidate(0, str(" Jane "), str("\n  Not great.  "))})
	r := ds.Records[0]
	if r.Author != "Jane" || r.Content != "Not great." || r.Sentiment != types.Negative {
		t.Errorf("unexpected record %+v", r)
	}
}

// --- Pipeline ---

func TestPipelineDedup(t *testing.T) {
	p := FromConfig(config.PipelineConfig{Dedup: true}, testLogger)
	agg, stats := newAggregator(0, p)

	ds := agg.Aggregate([]types.Candidate{
		candidate(0, str("A"), str("same")),
		candidate(1, str("B"), str("same")),
		candidate(2, str("A"), str("same")),
	})
	if ds.Len() != 2 {
		t.Errorf("expected 2 records after dedup, got %d", ds.Len())
	}
	if stats.Discards(ReasonDuplicate) != 1 {
		t.Errorf("expected 1 duplicate discard, got %d", stats.Discards(ReasonDuplicate))
	}
}

func TestDedupKeyIsUnambiguous(t *testing.T) {
	m := NewDedupMiddleware()
	if out, _ := m.Process(&types.Record{Author: "ab", Content: "c"}); out == nil {
		t.Fatal("first record dropped")
	}
	if out, _ := m.Process(&types.Record{Author: "a", Content: "bc"}); out == nil {
		t.Error("different author/content split must not collide")
	}
}

func TestWhitespaceMiddleware(t *testing.T) {
	m := &WhitespaceMiddleware{}
	out, err := m.Process(&types.Record{Author: "Jane   Doe", Content: "line one\n\n  line   two"})
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if out.Author != "Jane Doe" || out.Content != "line one line two" {
		t.Errorf("unexpected result %+v", out)
	}
}

func TestPIIRedactMiddleware(t *testing.T) {
	m := NewPIIRedactMiddleware(testLogger)
	out, err := m.Process(&types.Record{
		Author:  "jane@example.com",
		Content: "Reach me at jane@example.com or 555-123-4567",
	})
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if strings.Contains(out.Content, "jane@example.com") || strings.Contains(out.Content, "555-123-4567") {
		t.Errorf("PII not redacted: %q", out.Content)
	}
	if !strings.Contains(out.Content, "[REDACTED_EMAIL]") || !strings.Contains(out.Content, "[REDACTED_PHONE_US]") {
		t.Errorf("expected redaction markers, got %q", out.Content)
	}
	if out.Author != "jane@example.com" {
		t.Error("author should not be redacted")
	}
}

type failingMiddleware struct{}

func (failingMiddleware) Name() string { return "failing" }
func (failingMiddleware) Process(*types.Record) (*types.Record, error) {
	return nil, errors.New("boom")
}

func TestPipelineError(t *testing.T) {
	p := New(testLogger)
	p.Use(failingMiddleware{})

	_, _, err := p.Process(types.Record{Author: "A", Content: "B"}, 7)
	var pe *types.PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PipelineError, got %v", err)
	}
	if pe.Stage != "failing" || pe.Index != 7 {
		t.Errorf("unexpected error fields: %+v", pe)
	}

	agg, stats := newAggregator(0, p)
	ds := agg.Aggregate([]types.Candidate{candidate(0, str("A"), str("B"))})
	if ds.Len() != 0 || stats.Discards(ReasonPipelineError) != 1 {
		t.Errorf("failing middleware should drop the candidate")
	}
}

func TestFromConfigOrder(t *testing.T) {
	p := FromConfig(config.PipelineConfig{Dedup: true, CollapseWhitespace: true, RedactPII: true}, testLogger)
	if p.Len() != 3 {
		t.Fatalf("expected 3 middlewares, got %d", p.Len())
	}
	if p.middlewares[0].Name() != "whitespace" || p.middlewares[1].Name() != "dedup" {
		t.Errorf("unexpected order: %s, %s", p.middlewares[0].Name(), p.middlewares[1].Name())
	}
	if FromConfig(config.PipelineConfig{}, testLogger).Len() != 0 {
		t.Error("default config should enable no middleware")
	}
}
