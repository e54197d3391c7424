package types

import (
	"fmt"
	"strings"
)

// Field names used by extraction rules and discard reasons.
const (
	FieldAuthor    = "author"
	FieldContent   = "content"
	FieldTimestamp = "timestamp"
)

// NoTimestamp is stored when a post carries no recognizable timestamp.
const NoTimestamp = "N/A"

// Columns is the fixed column order of the output dataset.
var Columns = []string{"Author", "Content", "Sentiment", "Timestamp"}

// Candidate is the raw, possibly invalid, extraction result for one fragment.
// A nil field means no rule matched.
type Candidate struct {
	Index     int
	Author    *string
	Content   *string
	Timestamp *string
}

// Sentiment is the three-way label derived from a polarity score.
type Sentiment int

const (
	Neutral Sentiment = iota
	Positive
	Negative
)

// SentimentFromPolarity maps p in [-1, 1] to a label.
func SentimentFromPolarity(p float64) Sentiment {
	switch {
	case p > 0:
		return Positive
	case p < 0:
		return Negative
	default:
		return Neutral
	}
}

// ParseSentiment parses the text form produced by String.
func ParseSentiment(s string) (Sentiment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive":
		return Positive, nil
	case "negative":
		return Negative, nil
	case "neutral":
		return Neutral, nil
	default:
		return Neutral, fmt.Errorf("unknown sentiment %q", s)
	}
}

func (s Sentiment) String() string {
	switch s {
	case Positive:
		return "Positive"
	case Negative:
		return "Negative"
	default:
		return "Neutral"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Sentiment) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Sentiment) UnmarshalText(b []byte) error {
	v, err := ParseSentiment(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Record is a validated, classified output row.
type Record struct {
	Author    string    `json:"Author"`
	Content   string    `json:"Content"`
	Sentiment Sentiment `json:"Sentiment"`
	Timestamp string    `json:"Timestamp"`
}

// Row returns the record values in Columns order.
func (r Record) Row() []string {
	return []string{r.Author, r.Content, r.Sentiment.String(), r.Timestamp}
}

// Dataset is the ordered sequence of records produced by one run.
type Dataset struct {
	RunID   string
	Records []Record
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Append adds a record at the end of the dataset.
func (d *Dataset) Append(r Record) {
	d.Records = append(d.Records, r)
}
