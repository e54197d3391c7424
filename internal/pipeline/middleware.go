package pipeline

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/IshaanNene/feedpulse/internal/types"
)

// --- Advanced Middleware ---

type piiPattern struct {
	name string
	re   *regexp.Regexp
}

// PIIRedactMiddleware detects and redacts personally identifiable information
// in post content. Patterns are applied in a fixed order.
type PIIRedactMiddleware struct {
	patterns []piiPattern
	logger   *slog.Logger
}

func NewPIIRedactMiddleware(logger *slog.Logger) *PIIRedactMiddleware {
	return &PIIRedactMiddleware{
		patterns: []piiPattern{
			{"email", regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)},
			{"credit_card", regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`)},
			{"ssn", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
			{"phone_intl", regexp.MustCompile(`\+\d{1,3}[-.\s]?\(?\d{1,4}\)?[-.\s]?\d{1,4}[-.\s]?\d{1,9}`)},
			{"phone_us", regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)},
		},
		logger: logger.With("component", "pii_redact"),
	}
}

func (m *PIIRedactMiddleware) Name() string { return "pii_redact" }

func (m *PIIRedactMiddleware) Process(rec *types.Record) (*types.Record, error) {
	s := rec.Content
	for _, p := range m.patterns {
		if p.re.MatchString(s) {
			s = p.re.ReplaceAllString(s, "[REDACTED_"+strings.ToUpper(p.name)+"]")
			m.logger.Debug("PII redacted", "type", p.name)
		}
	}
	rec.Content = s
	return rec, nil
}
