package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/feedpulse/internal/config"
)

// Kind identifies the predicate family of a Rule.
type Kind string

const (
	KindClass Kind = "class"
	KindAttr  Kind = "attr"
	KindCSS   Kind = "css"
	KindXPath Kind = "xpath"
	KindRegex Kind = "regex"
)

// Rule is a structural predicate over the descendants of a fragment root.
type Rule interface {
	// Kind returns the predicate family.
	Kind() Kind

	// Match returns every descendant of root that satisfies the rule,
	// in document order. The root itself is never matched.
	Match(root *goquery.Selection) (*goquery.Selection, error)

	String() string
}

// Chain is an ordered rule list for a single field.
// Declared order is the tie-break policy: earlier rules win.
type Chain []Rule

func (c Chain) String() string {
	parts := make([]string, len(c))
	for i, r := range c {
		parts[i] = r.String()
	}
	return strings.Join(parts, " -> ")
}

// NewRule builds a Rule from its configuration form.
func NewRule(spec config.RuleSpec) (Rule, error) {
	switch Kind(strings.ToLower(spec.Kind)) {
	case "", KindClass:
		if spec.Tag == "" {
			return nil, fmt.Errorf("class rule needs a tag")
		}
		return &ClassRule{Tag: spec.Tag, Classes: spec.Classes}, nil
	case KindAttr:
		if spec.Tag == "" || spec.Attr == "" {
			return nil, fmt.Errorf("attr rule needs a tag and an attr")
		}
		return &AttrRule{Tag: spec.Tag, Attr: spec.Attr}, nil
	case KindCSS:
		return NewCSSRule(spec.Expr)
	case KindXPath:
		return NewXPathRule(spec.Expr)
	case KindRegex:
		return NewRegexRule(spec.Tag, spec.Expr)
	default:
		return nil, fmt.Errorf("unknown rule kind %q", spec.Kind)
	}
}

// NewChain builds a Chain from rule specs. An empty spec list yields fallback.
func NewChain(specs []config.RuleSpec, fallback Chain) (Chain, error) {
	if len(specs) == 0 {
		return fallback, nil
	}
	chain := make(Chain, 0, len(specs))
	for i, spec := range specs {
		r, err := NewRule(spec)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		chain = append(chain, r)
	}
	return chain, nil
}
