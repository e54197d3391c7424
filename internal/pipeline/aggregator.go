package pipeline

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/IshaanNene/feedpulse/internal/observability"
	"github.com/IshaanNene/feedpulse/internal/types"
)

// Discard reasons reported to the observer.
const (
	ReasonMissingAuthor     = "missing-author"
	ReasonEmptyAuthor       = "empty-author"
	ReasonMissingContent    = "missing-content"
	ReasonEmptyContent      = "empty-content"
	ReasonClassifierFailure = "classifier-failure"
	ReasonDuplicate         = "duplicate"
	ReasonPipelineError     = "pipeline-error"
)

// Classifier normalizes and labels post content.
type Classifier interface {
	Classify(raw string) (string, types.Sentiment, error)
}

// Aggregator validates candidates, classifies them and appends the
// resulting records in arrival order.
type Aggregator struct {
	classifier Classifier
	pipeline   *Pipeline
	observer   observability.Observer
	logger     *slog.Logger
}

// NewAggregator creates an aggregator. A nil pipeline runs no middleware;
// a nil observer discards events.
func NewAggregator(classifier Classifier, p *Pipeline, observer observability.Observer, logger *slog.Logger) *Aggregator {
	if p == nil {
		p = New(logger)
	}
	if observer == nil {
		observer = observability.Nop{}
	}
	return &Aggregator{
		classifier: classifier,
		pipeline:   p,
		observer:   observer,
		logger:     logger.With("component", "aggregator"),
	}
}

// Aggregate builds a dataset from candidates. Order is preserved;
// invalid candidates are dropped and counted.
func (a *Aggregator) Aggregate(candidates []types.Candidate) *types.Dataset {
	ds := &types.Dataset{Records: make([]types.Record, 0, len(candidates))}
	for _, c := range candidates {
		a.Add(ds, c)
	}

	a.logger.Info("aggregation complete",
		"candidates", len(candidates),
		"records", ds.Len(),
		"discarded", len(candidates)-ds.Len(),
	)
	return ds
}

// Add validates one candidate and appends its record to ds.
// It returns the discard reason, or "" when a record was appended.
func (a *Aggregator) Add(ds *types.Dataset, c types.Candidate) string {
	rec, reason := a.build(c)
	if rec == nil {
		a.observer.CandidateDiscarded(reason)
		return reason
	}
	ds.Append(*rec)
	a.observer.RecordEmitted()
	return ""
}

func (a *Aggregator) build(c types.Candidate) (*types.Record, string) {
	switch {
	case c.Author == nil:
		return nil, ReasonMissingAuthor
	case strings.TrimSpace(*c.Author) == "":
		return nil, ReasonEmptyAuthor
	case c.Content == nil:
		return nil, ReasonMissingContent
	case strings.TrimSpace(*c.Content) == "":
		return nil, ReasonEmptyContent
	}

	content, label, err := a.classifier.Classify(*c.Content)
	if err != nil {
		if errors.Is(err, types.ErrEmptyText) {
			return nil, ReasonEmptyContent
		}
		a.logger.Warn("classifier failed, dropping candidate", "fragment", c.Index, "error", err)
		return nil, ReasonClassifierFailure
	}

	timestamp := types.NoTimestamp
	if c.Timestamp != nil && strings.TrimSpace(*c.Timestamp) != "" {
		timestamp = strings.TrimSpace(*c.Timestamp)
	}

	rec := types.Record{
		Author:    strings.TrimSpace(*c.Author),
		Content:   content,
		Sentiment: label,
		Timestamp: timestamp,
	}

	out, reason, err := a.pipeline.Process(rec, c.Index)
	if err != nil {
		a.logger.Warn("pipeline failed, dropping candidate", "error", err)
		return nil, ReasonPipelineError
	}
	if out == nil {
		return nil, reason
	}
	return out, ""
}
