package parser

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/feedpulse/internal/types"
)

// Locator splits a page into post fragments using a container chain.
type Locator struct {
	chain  Chain
	union  bool
	logger *slog.Logger
}

// NewLocator creates a container locator. A nil chain uses DefaultContainerChain.
//
// By default the first rule that matches anything wins. With union set,
// the matches of every rule are appended in chain order; a container
// matched by several rules then appears several times.
func NewLocator(chain Chain, union bool, logger *slog.Logger) *Locator {
	if chain == nil {
		chain = DefaultContainerChain()
	}
	return &Locator{
		chain:  chain,
		union:  union,
		logger: logger.With("component", "locator"),
	}
}

// Locate parses markup and returns the post fragments in document order.
func (l *Locator) Locate(markup string) ([]types.Fragment, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, &types.ParseError{Source: "page", Selector: l.chain.String(), Err: err}
	}
	return l.LocateDocument(doc), nil
}

// LocateDocument returns the post fragments of an already parsed document.
func (l *Locator) LocateDocument(doc *goquery.Document) []types.Fragment {
	var fragments []types.Fragment

	for _, rule := range l.chain {
		sel, err := safeMatch(rule, doc.Selection)
		if err != nil {
			l.logger.Warn("container rule failed", "rule", rule.String(), "error", err)
			continue
		}
		if sel == nil || sel.Length() == 0 {
			continue
		}

		l.logger.Debug("containers found", "rule", rule.String(), "count", sel.Length())
		sel.Each(func(_ int, s *goquery.Selection) {
			fragments = append(fragments, types.NewFragment(len(fragments), s))
		})

		if !l.union {
			break
		}
	}

	return fragments
}
