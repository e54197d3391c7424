package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RegexRule matches elements with Tag whose whitespace-normalized text
// matches Pattern. An empty Tag matches any element. Useful when the markup
// gives no stable class but the text has a recognizable shape, such as a
// relative age like "3d" or "1mo".
type RegexRule struct {
	Tag     string
	Pattern string

	re *regexp.Regexp
}

// NewRegexRule compiles a text pattern rule.
func NewRegexRule(tag, pattern string) (*RegexRule, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("regex rule needs an expr")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	if tag == "" {
		tag = "*"
	}
	return &RegexRule{Tag: tag, Pattern: pattern, re: re}, nil
}

// Kind implements Rule.
func (r *RegexRule) Kind() Kind { return KindRegex }

// Match implements Rule.
func (r *RegexRule) Match(root *goquery.Selection) (*goquery.Selection, error) {
	if r.re == nil {
		return nil, fmt.Errorf("regex rule %q was not compiled", r.Pattern)
	}
	return root.Find(r.Tag).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return r.re.MatchString(strings.Join(strings.Fields(s.Text()), " "))
	}), nil
}

func (r *RegexRule) String() string {
	return fmt.Sprintf("%s~/%s/", r.Tag, r.Pattern)
}
