package parser

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/feedpulse/internal/types"
)

// ExtractField evaluates chain against the fragment in declared order.
// The first rule with a structural match decides the result: the trimmed
// text of its first match (document order) is returned, possibly empty,
// and later rules are not evaluated. ok is false when no rule matches.
func ExtractField(f types.Fragment, chain Chain) (text string, ok bool) {
	text, ok, _ = extractField(f, chain)
	return text, ok
}

// extractField also reports which rule matched, or -1.
func extractField(f types.Fragment, chain Chain) (string, bool, int) {
	if f.Empty() {
		return "", false, -1
	}
	root := f.Selection()
	for i, rule := range chain {
		sel, err := safeMatch(rule, root)
		if err != nil || sel == nil || sel.Length() == 0 {
			continue
		}
		return strings.TrimSpace(sel.First().Text()), true, i
	}
	return "", false, -1
}

// safeMatch evaluates a rule, converting a panic from malformed markup into an error.
func safeMatch(rule Rule, root *goquery.Selection) (sel *goquery.Selection, err error) {
	defer func() {
		if r := recover(); r != nil {
			sel, err = nil, fmt.Errorf("rule %s panicked: %v", rule, r)
		}
	}()
	return rule.Match(root)
}

// Resolver applies the author, content and timestamp chains to fragments.
type Resolver struct {
	author    Chain
	content   Chain
	timestamp Chain
	logger    *slog.Logger
}

// NewResolver creates a resolver. A nil chain falls back to the default for that field.
func NewResolver(author, content, timestamp Chain, logger *slog.Logger) *Resolver {
	if author == nil {
		author = DefaultAuthorChain()
	}
	if content == nil {
		content = DefaultContentChain()
	}
	if timestamp == nil {
		timestamp = DefaultTimestampChain()
	}
	return &Resolver{
		author:    author,
		content:   content,
		timestamp: timestamp,
		logger:    logger.With("component", "resolver"),
	}
}

// Resolve extracts a Candidate from one fragment. It never fails:
// unmatched fields are left nil.
func (r *Resolver) Resolve(f types.Fragment) types.Candidate {
	c := types.Candidate{Index: f.Index}
	c.Author = r.field(f, types.FieldAuthor, r.author)
	c.Content = r.field(f, types.FieldContent, r.content)
	c.Timestamp = r.field(f, types.FieldTimestamp, r.timestamp)
	return c
}

// ResolveAll resolves fragments in order.
func (r *Resolver) ResolveAll(fragments []types.Fragment) []types.Candidate {
	out := make([]types.Candidate, 0, len(fragments))
	for _, f := range fragments {
		out = append(out, r.Resolve(f))
	}
	return out
}

func (r *Resolver) field(f types.Fragment, name string, chain Chain) *string {
	text, ok, idx := extractField(f, chain)
	if !ok {
		r.logger.Debug("no rule matched", "fragment", f.Index, "field", name)
		return nil
	}
	r.logger.Debug("rule matched", "fragment", f.Index, "field", name, "rule", chain[idx].String())
	return &text
}
