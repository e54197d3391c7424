package sentiment

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

//go:embed lexicon.txt
var defaultLexicon string

// Modifier weights applied to the next sentiment-bearing term.
var intensifiers = map[string]float64{
	"very":       1.3,
	"really":     1.3,
	"so":         1.2,
	"super":      1.3,
	"extremely":  1.5,
	"incredibly": 1.5,
	"truly":      1.2,
	"quite":      1.1,
	"pretty":     1.1,
	"slightly":   0.5,
	"somewhat":   0.7,
}

var negations = map[string]bool{
	"not":     true,
	"no":      true,
	"never":   true,
	"neither": true,
	"nor":     true,
	"without": true,
}

// negationFactor flips and dampens a negated term.
const negationFactor = -0.5

// LexiconScorer is a deterministic, dictionary based polarity scorer.
// It holds no mutable state and is safe for concurrent use.
type LexiconScorer struct {
	terms    map[string]float64
	keywords []string
	matcher  *ahocorasick.Matcher
}

// NewLexiconScorer builds a scorer from term polarities.
// Terms are lowercased; values outside [-1, 1] are rejected.
func NewLexiconScorer(terms map[string]float64) (*LexiconScorer, error) {
	s := &LexiconScorer{terms: make(map[string]float64, len(terms))}
	for term, p := range terms {
		term = normalizeText(term)
		if term == "" {
			continue
		}
		if math.IsNaN(p) || p < -1 || p > 1 {
			return nil, fmt.Errorf("lexicon term %q: polarity %v outside [-1, 1]", term, p)
		}
		if len(strings.Fields(term)) > 2 {
			return nil, fmt.Errorf("lexicon term %q: at most two words are supported", term)
		}
		s.terms[term] = p
	}

	s.keywords = make([]string, 0, len(s.terms))
	for term := range s.terms {
		s.keywords = append(s.keywords, term)
	}
	sort.Strings(s.keywords)

	if len(s.keywords) > 0 {
		s.matcher = ahocorasick.NewStringMatcher(s.keywords)
	}
	return s, nil
}

// NewDefaultScorer returns a scorer over the embedded English lexicon.
func NewDefaultScorer() (*LexiconScorer, error) {
	terms, err := ParseLexicon(strings.NewReader(defaultLexicon))
	if err != nil {
		return nil, err
	}
	return NewLexiconScorer(terms)
}

// ParseLexicon reads "term<TAB>polarity" lines. Blank lines and lines
// starting with '#' are skipped.
func ParseLexicon(r io.Reader) (map[string]float64, error) {
	terms := make(map[string]float64)
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		term, value, ok := strings.Cut(text, "\t")
		if !ok {
			return nil, fmt.Errorf("lexicon line %d: expected term<TAB>polarity", line)
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("lexicon line %d: %w", line, err)
		}
		terms[strings.TrimSpace(term)] = p
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return terms, nil
}

// Len returns the number of lexicon terms.
func (s *LexiconScorer) Len() int {
	return len(s.terms)
}

// Score implements Scorer. It returns the mean polarity of the lexicon terms
// found in text after modifiers are applied, clamped to [-1, 1].
// Text without lexicon terms scores 0.
func (s *LexiconScorer) Score(text string) (float64, error) {
	if s.matcher == nil {
		return 0, nil
	}
	normalized := normalizeText(text)
	if normalized == "" {
		return 0, nil
	}

	// Substring prefilter: only terms seen here can match a token below.
	hits := s.matcher.Match([]byte(normalized))
	if len(hits) == 0 {
		return 0, nil
	}
	present := make(map[string]bool, len(hits))
	for _, idx := range hits {
		if idx < len(s.keywords) {
			present[s.keywords[idx]] = true
		}
	}

	tokens := strings.Fields(normalized)
	var (
		sum      float64
		count    int
		weight   = 1.0
		negated  bool
		modified bool
	)

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		if i+1 < len(tokens) {
			bigram := tok + " " + tokens[i+1]
			if present[bigram] {
				sum += apply(s.terms[bigram], weight, negated)
				count++
				weight, negated, modified = 1.0, false, false
				i++
				continue
			}
		}

		if present[tok] {
			if w, ok := intensifiers[tok]; ok && i+1 < len(tokens) && s.bearsSentiment(tokens[i+1]) {
				weight *= w
				modified = true
				continue
			}
			sum += apply(s.terms[tok], weight, negated)
			count++
			weight, negated, modified = 1.0, false, false
			continue
		}

		switch {
		case negations[tok] || strings.HasSuffix(tok, "n't"):
			negated = !negated
			modified = true
		case intensifiers[tok] != 0:
			weight *= intensifiers[tok]
			modified = true
		default:
			if modified {
				weight, negated, modified = 1.0, false, false
			}
		}
	}

	if count == 0 {
		return 0, nil
	}
	return clamp(sum / float64(count)), nil
}

// bearsSentiment reports whether tok is a lexicon term.
func (s *LexiconScorer) bearsSentiment(tok string) bool {
	_, ok := s.terms[tok]
	return ok
}

func apply(p, weight float64, negated bool) float64 {
	p *= weight
	if negated {
		p *= negationFactor
	}
	return clamp(p)
}

func clamp(p float64) float64 {
	return math.Max(-1, math.Min(1, p))
}

// normalizeText lowercases text and reduces it to space separated words.
// Apostrophes are kept so contractions like "isn't" stay one token.
func normalizeText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	space := true
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			space = false
		case r == '\'' || r == '’':
			if !space {
				b.WriteRune('\'')
			}
		default:
			if !space {
				b.WriteByte(' ')
				space = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
