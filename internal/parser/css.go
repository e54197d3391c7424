package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// ClassRule matches elements by tag name and class attribute.
//
// Each entry in Classes is tested on its own and any entry may match:
// an entry containing whitespace must equal the whole class attribute,
// otherwise it must be one of the element's class tokens. An empty Classes
// list matches every element with the tag.
type ClassRule struct {
	Tag     string
	Classes []string
}

// Kind implements Rule.
func (r *ClassRule) Kind() Kind { return KindClass }

// Match implements Rule.
func (r *ClassRule) Match(root *goquery.Selection) (*goquery.Selection, error) {
	return root.Find(r.Tag).FilterFunction(func(_ int, s *goquery.Selection) bool {
		if len(r.Classes) == 0 {
			return true
		}
		attr, ok := s.Attr("class")
		if !ok {
			return false
		}
		return classMatches(attr, r.Classes)
	}), nil
}

func (r *ClassRule) String() string {
	return fmt.Sprintf("%s.%s", r.Tag, strings.Join(r.Classes, "|"))
}

func classMatches(attr string, classes []string) bool {
	tokens := strings.Fields(attr)
	whole := strings.Join(tokens, " ")
	for _, want := range classes {
		want = strings.TrimSpace(want)
		if want == "" {
			continue
		}
		if strings.ContainsAny(want, " \t\n") {
			if whole == strings.Join(strings.Fields(want), " ") {
				return true
			}
			continue
		}
		for _, tok := range tokens {
			if tok == want {
				return true
			}
		}
	}
	return false
}

// AttrRule matches elements by tag name that carry an attribute, whatever its value.
type AttrRule struct {
	Tag  string
	Attr string
}

// Kind implements Rule.
func (r *AttrRule) Kind() Kind { return KindAttr }

// Match implements Rule.
func (r *AttrRule) Match(root *goquery.Selection) (*goquery.Selection, error) {
	return root.Find(r.Tag).FilterFunction(func(_ int, s *goquery.Selection) bool {
		_, ok := s.Attr(r.Attr)
		return ok
	}), nil
}

func (r *AttrRule) String() string {
	return fmt.Sprintf("%s[%s]", r.Tag, r.Attr)
}

// CSSRule matches elements with an arbitrary CSS selector.
type CSSRule struct {
	Expr string

	sel cascadia.Selector
}

// NewCSSRule compiles a CSS selector rule.
func NewCSSRule(expr string) (*CSSRule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("css rule needs an expr")
	}
	sel, err := cascadia.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid css selector %q: %w", expr, err)
	}
	return &CSSRule{Expr: expr, sel: sel}, nil
}

// Kind implements Rule.
func (r *CSSRule) Kind() Kind { return KindCSS }

// Match implements Rule.
func (r *CSSRule) Match(root *goquery.Selection) (*goquery.Selection, error) {
	if r.sel == nil {
		return nil, fmt.Errorf("css rule %q was not compiled", r.Expr)
	}
	return root.FindMatcher(r.sel), nil
}

func (r *CSSRule) String() string {
	return r.Expr
}
