package sentiment

import (
	"log/slog"
	"math"
	"strings"

	"github.com/IshaanNene/feedpulse/internal/types"
)

// Scorer computes a polarity score in [-1, 1] for text.
// Implementations must be deterministic and must not perform network I/O.
type Scorer interface {
	Score(text string) (float64, error)
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(text string) (float64, error)

// Score implements Scorer.
func (f ScorerFunc) Score(text string) (float64, error) { return f(text) }

// StaticScorer returns the same polarity for every text.
type StaticScorer float64

// Score implements Scorer.
func (s StaticScorer) Score(string) (float64, error) { return float64(s), nil }

// Normalize trims leading and trailing whitespace.
func Normalize(raw string) string {
	return strings.TrimSpace(raw)
}

// Classifier normalizes text and labels it through a Scorer.
type Classifier struct {
	scorer Scorer
	logger *slog.Logger
}

// NewClassifier creates a classifier around scorer.
func NewClassifier(scorer Scorer, logger *slog.Logger) *Classifier {
	return &Classifier{
		scorer: scorer,
		logger: logger.With("component", "classifier"),
	}
}

// Classify returns the normalized text and its sentiment label.
//
// Empty text after normalization returns types.ErrEmptyText. A scorer error,
// a NaN or a score outside [-1, 1] returns a *types.ClassifierError.
func (c *Classifier) Classify(raw string) (string, types.Sentiment, error) {
	text := Normalize(raw)
	if text == "" {
		return "", types.Neutral, types.ErrEmptyText
	}

	p, err := c.scorer.Score(text)
	if err != nil {
		return text, types.Neutral, &types.ClassifierError{Err: err}
	}
	if math.IsNaN(p) || p < -1 || p > 1 {
		return text, types.Neutral, &types.ClassifierError{
			Score: p,
			Err:   types.ErrScoreOutOfRange,
		}
	}

	label := types.SentimentFromPolarity(p)
	c.logger.Debug("classified", "polarity", p, "sentiment", label.String())
	return text, label, nil
}
