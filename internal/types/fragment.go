package types

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Fragment is the markup subtree of one candidate post.
// Its identity is its offset in the fetched collection, not its content.
type Fragment struct {
	// Index is the position of this fragment in the collection it came from.
	Index int

	sel *goquery.Selection
}

// NewFragment wraps a single-node selection as a Fragment.
func NewFragment(index int, sel *goquery.Selection) Fragment {
	return Fragment{Index: index, sel: sel.First()}
}

// Selection returns the goquery selection rooted at the fragment.
// Callers must not mutate the returned selection.
func (f Fragment) Selection() *goquery.Selection {
	if f.sel == nil {
		return &goquery.Selection{}
	}
	return f.sel
}

// Node returns the root node of the fragment, or nil for an empty fragment.
func (f Fragment) Node() *html.Node {
	if f.sel == nil || len(f.sel.Nodes) == 0 {
		return nil
	}
	return f.sel.Nodes[0]
}

// Empty reports whether the fragment has no root node.
func (f Fragment) Empty() bool {
	return f.Node() == nil
}
