package page

import (
	"bytes"
	"strconv"

	"golang.org/x/net/html"

	"lookup/links"
)

// Fragment is one formatted, displayable navigation result.
type Fragment struct {
	Page  string
	Root  *html.Node
	Links []*links.Link
}

// NewFragment builds a fragment rooted at root. Only links still attached
// below root are kept; they are numbered in document order and the
// number is written to the anchor's data-link attribute.
func NewFragment(name string, root *html.Node, all []*links.Link) *Fragment {
	byNode := make(map[*html.Node]*links.Link, len(all))
	for _, l := range all {
		byNode[l.Node] = l
	}

	f := &Fragment{Page: name, Root: root}
	walk(root, func(n *html.Node) {
		if l, ok := byNode[n]; ok {
			links.SetAttr(n, "data-link", strconv.Itoa(len(f.Links)))
			f.Links = append(f.Links, l)
		}
	})
	return f
}

// Extract returns a new fragment holding a copy of the subtree at n. The
// copied cross-references still follow their original targets.
func (f *Fragment) Extract(n *html.Node) *Fragment {
	byNode := make(map[*html.Node]*links.Link, len(f.Links))
	for _, l := range f.Links {
		byNode[l.Node] = l
	}

	var copied []*links.Link
	clone := cloneTree(n, func(orig, dup *html.Node) {
		if l, ok := byNode[orig]; ok {
			copied = append(copied, l.Rebind(dup))
		}
	})

	root := element("div", "class", "form-of")
	root.AppendChild(clone)
	return NewFragment(f.Page, root, copied)
}

// Follow triggers the i-th intercepted link. It reports false when there
// is no such link.
func (f *Fragment) Follow(i int) bool {
	if i < 0 || i >= len(f.Links) {
		return false
	}
	f.Links[i].Follow()
	return true
}

// HTML renders the fragment's children, the part handed to a display.
func (f *Fragment) HTML() (string, error) {
	var buf bytes.Buffer
	for c := f.Root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func cloneTree(n *html.Node, visit func(orig, dup *html.Node)) *html.Node {
	dup := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	visit(n, dup)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		dup.AppendChild(cloneTree(c, visit))
	}
	return dup
}
