package parser

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/feedpulse/internal/config"
	"github.com/IshaanNene/feedpulse/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const testFeed = `<!DOCTYPE html>
<html>
<body>
  <main>
    <div class="feed-shared-update-v2 artdeco-card" data-urn="urn:li:activity:1">
      <span class="update-components-actor__name">Jane Doe</span>
      <span class="update-components-actor__sub-description">2d</span>
      <div class="update-components-text"><span class="break-words">Great news! We shipped.</span></div>
      <a class="app-aware-link" href="/in/someone">#golang</a>
    </div>
    <div class="feed-shared-update-v2" data-urn="urn:li:activity:2">
      <a class="app-aware-link" href="/in/john">John Roe</a>
      <time datetime="2024-05-01">2024-05-01</time>
      <span class="break-words">   </span>
    </div>
    <div data-urn="urn:li:activity:3">
      <span class="feed-shared-actor__name">Ada</span>
    </div>
  </main>
</body>
</html>`

// fragmentOf returns the first element inside body as a fragment.
func fragmentOf(t *testing.T, markup string) types.Fragment {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("parse markup: %v", err)
	}
	sel := doc.Find("body > *").First()
	if sel.Length() == 0 {
		t.Fatal("markup has no root element")
	}
	return types.NewFragment(0, sel)
}

type panicRule struct{}

func (panicRule) Kind() Kind { return KindCSS }
func (panicRule) Match(*goquery.Selection) (*goquery.Selection, error) {
	panic("malformed fragment")
}
func (panicRule) String() string { return "panic" }

type errRule struct{}

func (errRule) Kind() Kind { return KindCSS }
func (errRule) Match(*goquery.Selection) (*goquery.Selection, error) {
	return nil, errors.New("boom")
}
func (errRule) String() string { return "err" }

// --- ExtractField ---

func TestExtractFieldFallsBackToLaterRule(t *testing.T) {
	f := fragmentOf(t, `<div><a class="generic-link">Jane Doe</a></div>`)
	chain := Chain{
		&ClassRule{Tag: "span", Classes: []string{"actor-name"}},
		&ClassRule{Tag: "a", Classes: []string{"generic-link"}},
	}

	got, ok := ExtractField(f, chain)
	if !ok {
		t.Fatal("expected a match")
	}
	if got != "Jane Doe" {
		t.Errorf("expected 'Jane Doe', got %q", got)
	}
}

func TestExtractFieldFirstRuleWins(t *testing.T) {
	// The link appears first in the document, but the span rule is first in the chain.
	f := fragmentOf(t, `<div>
		<a class="generic-link">Linked Person</a>
		<span class="actor-name">  Actor Person  </span>
	</div>`)
	chain := Chain{
		&ClassRule{Tag: "span", Classes: []string{"actor-name"}},
		&ClassRule{Tag: "a", Classes: []string{"generic-link"}},
	}

	for i := 0; i < 3; i++ {
		got, _ := ExtractField(f, chain)
		if got != "Actor Person" {
			t.Fatalf("run %d: expected 'Actor Person', got %q", i, got)
		}
	}

	reversed := Chain{chain[1], chain[0]}
	if got, _ := ExtractField(f, reversed); got != "Linked Person" {
		t.Errorf("reversed chain: expected 'Linked Person', got %q", got)
	}
}

func TestExtractFieldFirstMatchInDocumentOrder(t *testing.T) {
	f := fragmentOf(t, `<div><p class="x">one</p><p class="x">two</p></div>`)
	got, ok := ExtractField(f, Chain{&ClassRule{Tag: "p", Classes: []string{"x"}}})
	if !ok || got != "one" {
		t.Errorf("expected 'one', got %q (ok=%v)", got, ok)
	}
}

func TestExtractFieldNoMatch(t *testing.T) {
	f := fragmentOf(t, `<div><p>nothing here</p></div>`)
	got, ok := ExtractField(f, DefaultAuthorChain())
	if ok {
		t.Errorf("expected absent, got %q", got)
	}
}

func TestExtractFieldEmptyMatchStopsChain(t *testing.T) {
	f := fragmentOf(t, `<div><span class="a">  </span><span class="b">later</span></div>`)
	chain := Chain{
		&ClassRule{Tag: "span", Classes: []string{"a"}},
		&ClassRule{Tag: "span", Classes: []string{"b"}},
	}
	got, ok := ExtractField(f, chain)
	if !ok {
		t.Fatal("structural match should be reported as present")
	}
	if got != "" {
		t.Errorf("expected empty text, got %q", got)
	}
}

func TestExtractFieldRecoversFromFailingRules(t *testing.T) {
	f := fragmentOf(t, `<div><span class="ok">fine</span></div>`)
	chain := Chain{panicRule{}, errRule{}, &ClassRule{Tag: "span", Classes: []string{"ok"}}}

	got, ok := ExtractField(f, chain)
	if !ok || got != "fine" {
		t.Errorf("expected 'fine', got %q (ok=%v)", got, ok)
	}
}

func TestExtractFieldEmptyFragment(t *testing.T) {
	if _, ok := ExtractField(types.Fragment{}, DefaultContentChain()); ok {
		t.Error("empty fragment should never match")
	}
}

func TestExtractFieldDoesNotMatchRoot(t *testing.T) {
	f := fragmentOf(t, `<span class="actor">Root</span>`)
	if _, ok := ExtractField(f, Chain{&ClassRule{Tag: "span", Classes: []string{"actor"}}}); ok {
		t.Error("rules must only match descendants of the fragment root")
	}
}

// --- Rule kinds ---

func TestClassRuleMatching(t *testing.T) {
	f := fragmentOf(t, `<div>
		<div id="exact" class="relative  feed-shared-update-v2--e2e artdeco-card">exact</div>
		<div id="token" class="foo occludable-update bar">token</div>
	</div>`)

	tests := []struct {
		name    string
		classes []string
		want    string
		ok      bool
	}{
		{"token membership", []string{"occludable-update"}, "token", true},
		{"any of list", []string{"missing", "occludable-update"}, "token", true},
		{"whole attribute", []string{"relative feed-shared-update-v2--e2e artdeco-card"}, "exact", true},
		{"whole attribute requires every token", []string{"relative artdeco-card"}, "", false},
		{"no tokens match", []string{"nope"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractField(f, Chain{&ClassRule{Tag: "div", Classes: tt.classes}})
			if ok != tt.ok || got != tt.want {
				t.Errorf("expected (%q, %v), got (%q, %v)", tt.want, tt.ok, got, ok)
			}
		})
	}
}

func TestAttrRule(t *testing.T) {
	f := fragmentOf(t, `<section><div>no</div><div data-urn="">yes</div></section>`)
	got, ok := ExtractField(f, Chain{&AttrRule{Tag: "div", Attr: "data-urn"}})
	if !ok || got != "yes" {
		t.Errorf("expected 'yes', got %q (ok=%v)", got, ok)
	}
}

func TestCSSRule(t *testing.T) {
	r, err := NewCSSRule("div.body > span.text")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	f := fragmentOf(t, `<article><span class="text">outer</span><div class="body"><span class="text">inner</span></div></article>`)
	got, ok := ExtractField(f, Chain{r})
	if !ok || got != "inner" {
		t.Errorf("expected 'inner', got %q (ok=%v)", got, ok)
	}

	if _, err := NewCSSRule("div[["); err == nil {
		t.Error("expected error for malformed selector")
	}
}

func TestXPathRuleScopedToFragment(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(testFeed))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	second := types.NewFragment(1, doc.Find("div[data-urn]").Eq(1))

	r, err := NewXPathRule("//a[contains(@class, 'app-aware-link')]")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got, ok := ExtractField(second, Chain{r})
	if !ok || got != "John Roe" {
		t.Errorf("expected 'John Roe', got %q (ok=%v)", got, ok)
	}

	if _, err := NewXPathRule("//a[@class="); err == nil {
		t.Error("expected error for malformed xpath")
	}
}

func TestRegexRule(t *testing.T) {
	r, err := NewRegexRule("span", `^\d+(s|m|h|d|w|mo|yr)\b`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	f := fragmentOf(t, `<article><span>Jane Doe</span><span class="x">3d • Edited</span><span>1w</span></article>`)
	got, ok := ExtractField(f, Chain{r})
	if !ok || got != "3d • Edited" {
		t.Errorf("expected '3d • Edited', got %q (ok=%v)", got, ok)
	}

	wild, err := NewRegexRule("", "Doe$")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if wild.Tag != "*" {
		t.Errorf("expected wildcard tag, got %q", wild.Tag)
	}

	if _, err := NewRegexRule("span", "("); err == nil {
		t.Error("expected error for malformed pattern")
	}
	if _, err := NewRegexRule("span", " "); err == nil {
		t.Error("expected error for empty pattern")
	}
}

func TestNewChainFromSpecs(t *testing.T) {
	chain, err := NewChain([]config.RuleSpec{
		{Kind: "class", Tag: "span", Classes: []string{"actor"}},
		{Kind: "attr", Tag: "div", Attr: "data-urn"},
		{Kind: "CSS", Expr: "p.text"},
		{Kind: "xpath", Expr: ".//time"},
		{Kind: "regex", Tag: "span", Expr: `^\d+[hdw]$`},
	}, nil)
	if err != nil {
		t.Fatalf("build chain: %v", err)
	}
	kinds := []Kind{KindClass, KindAttr, KindCSS, KindXPath, KindRegex}
	for i, r := range chain {
		if r.Kind() != kinds[i] {
			t.Errorf("rule %d: expected kind %s, got %s", i, kinds[i], r.Kind())
		}
	}

	fallback := DefaultAuthorChain()
	got, err := NewChain(nil, fallback)
	if err != nil || len(got) != len(fallback) {
		t.Errorf("empty specs should return the fallback chain")
	}

	if _, err := NewChain([]config.RuleSpec{{Kind: "jsonpath", Expr: "$.a"}}, nil); err == nil {
		t.Error("expected error for unknown kind")
	}
}

// --- Locator & Resolver ---

func TestLocatorFirstNonEmptyRule(t *testing.T) {
	l := NewLocator(nil, false, testLogger)
	fragments, err := l.Locate(testFeed)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if len(fragments) != 2 {
		t.Fatalf("expected 2 feed-shared-update-v2 containers, got %d", len(fragments))
	}
	for i, f := range fragments {
		if f.Index != i {
			t.Errorf("fragment %d has index %d", i, f.Index)
		}
	}
}

func TestLocatorUnion(t *testing.T) {
	l := NewLocator(nil, true, testLogger)
	fragments, err := l.Locate(testFeed)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	// 2 class matches + 3 data-urn matches.
	if len(fragments) != 5 {
		t.Errorf("expected 5 fragments in union mode, got %d", len(fragments))
	}
}

func TestLocatorNothingFound(t *testing.T) {
	l := NewLocator(nil, false, testLogger)
	fragments, err := l.Locate(`<html><body><p>login</p></body></html>`)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if len(fragments) != 0 {
		t.Errorf("expected no fragments, got %d", len(fragments))
	}
}

func TestResolverDefaults(t *testing.T) {
	l := NewLocator(nil, false, testLogger)
	fragments, err := l.Locate(testFeed)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}

	r := NewResolver(nil, nil, nil, testLogger)
	candidates := r.ResolveAll(fragments)
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}

	first := candidates[0]
	if first.Author == nil || *first.Author != "Jane Doe" {
		t.Errorf("first author: got %v", first.Author)
	}
	if first.Content == nil || *first.Content != "Great news! We shipped." {
		t.Errorf("first content: got %v", first.Content)
	}
	if first.Timestamp == nil || *first.Timestamp != "2d" {
		t.Errorf("first timestamp: got %v", first.Timestamp)
	}

	second := candidates[1]
	if second.Index != 1 {
		t.Errorf("second index: got %d", second.Index)
	}
	if second.Author == nil || *second.Author != "John Roe" {
		t.Errorf("second author should fall back to the link: got %v", second.Author)
	}
	if second.Content == nil || *second.Content != "" {
		t.Errorf("second content should be present and empty: got %v", second.Content)
	}
	if second.Timestamp == nil || *second.Timestamp != "2024-05-01" {
		t.Errorf("second timestamp: got %v", second.Timestamp)
	}
}

func TestResolverMissingFields(t *testing.T) {
	r := NewResolver(nil, nil, nil, testLogger)
	c := r.Resolve(fragmentOf(t, `<div><span class="feed-shared-actor__name">Ada</span></div>`))
	if c.Author == nil || *c.Author != "Ada" {
		t.Errorf("author: got %v", c.Author)
	}
	if c.Content != nil {
		t.Errorf("content should be absent, got %q", *c.Content)
	}
	if c.Timestamp != nil {
		t.Errorf("timestamp should be absent, got %q", *c.Timestamp)
	}
}

func BenchmarkResolve(b *testing.B) {
	l := NewLocator(nil, false, testLogger)
	fragments, _ := l.Locate(testFeed)
	r := NewResolver(nil, nil, nil, testLogger)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.ResolveAll(fragments)
	}
}
