package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
)

// XPathRule matches elements with an XPath expression evaluated from the
// fragment root. Results outside the fragment subtree are ignored, so both
// ".//span" and "//span" stay scoped to the fragment.
type XPathRule struct {
	Expr string

	expr *xpath.Expr
}

// NewXPathRule compiles an XPath rule.
func NewXPathRule(expr string) (*XPathRule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("xpath rule needs an expr")
	}
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	return &XPathRule{Expr: expr, expr: compiled}, nil
}

// Kind implements Rule.
func (r *XPathRule) Kind() Kind { return KindXPath }

// Match implements Rule.
func (r *XPathRule) Match(root *goquery.Selection) (*goquery.Selection, error) {
	if r.expr == nil {
		return nil, fmt.Errorf("xpath rule %q was not compiled", r.Expr)
	}
	var out *goquery.Selection
	for _, n := range root.Nodes {
		nodes := htmlquery.QuerySelectorAll(n, r.expr)
		found := root.FindNodes(nodes...)
		if out == nil {
			out = found
		} else {
			out = out.AddSelection(found)
		}
	}
	if out == nil {
		return root.FindNodes(), nil
	}
	return out, nil
}

func (r *XPathRule) String() string {
	return "xpath:" + r.Expr
}
