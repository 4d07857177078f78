// Package links rewrites hyperlinks in entry markup so that cross-references
// are followed inside the panel instead of navigating away.
package links

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Kind classifies a hyperlink.
type Kind int

const (
	// Unlinked anchors carry no href at all and are left alone.
	Unlinked Kind = iota
	External
	Anchor
	Missing
	Intercepted
)

func (k Kind) String() string {
	switch k {
	case External:
		return "external"
	case Anchor:
		return "anchor"
	case Missing:
		return "missing"
	case Intercepted:
		return "intercepted"
	}
	return "unlinked"
}

// Link is an intercepted cross-reference. Its href has been removed from
// the markup; Target keeps the original value for the follow callback.
type Link struct {
	Node   *html.Node
	Target string
	follow func(string)
}

// Follow triggers the in-panel navigation for the link.
func (l *Link) Follow() {
	if l.follow != nil {
		l.follow(l.Target)
	}
}

// Rebind returns a copy of the link attached to another node, used when a
// subtree is cloned out of a formatted page.
func (l *Link) Rebind(n *html.Node) *Link {
	return &Link{Node: n, Target: l.Target, follow: l.follow}
}

// Classify reports how an anchor element is treated by Rewrite.
func Classify(a *html.Node) Kind {
	if HasClass(a, "extiw") || HasClass(a, "external") {
		return External
	}
	href, ok := Attr(a, "href")
	if !ok {
		return Unlinked
	}
	if strings.HasPrefix(href, "#") {
		return Anchor
	}
	if HasClass(a, "new") {
		return Missing
	}
	return Intercepted
}

// Rewrite walks every anchor below root. External links open in a new
// context, page anchors are kept, links to missing pages lose their href
// and everything else becomes an intercepted Link that calls follow with
// the original href.
func Rewrite(root *html.Node, follow func(string), log *slog.Logger) []*Link {
	if log == nil {
		log = slog.Default()
	}

	var out []*Link
	goquery.NewDocumentFromNode(root).Find("a").Each(func(_ int, s *goquery.Selection) {
		a := s.Get(0)
		switch Classify(a) {
		case External:
			SetAttr(a, "target", "_blank")
			SetAttr(a, "rel", "noopener")
		case Anchor:
		case Missing:
			RemoveAttr(a, "href")
		case Intercepted:
			href, _ := Attr(a, "href")
			RemoveAttr(a, "href")
			out = append(out, &Link{Node: a, Target: href, follow: follow})
		default:
			log.Debug("anchor without href left untouched", "text", strings.TrimSpace(s.Text()))
		}
	})
	return out
}

// HasClass reports whether n carries class in its class attribute.
func HasClass(n *html.Node, class string) bool {
	v, _ := Attr(n, "class")
	return slices.Contains(strings.Fields(v), class)
}

// Attr returns the value of attribute key and whether it is present.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets attribute key, adding it when missing.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes attribute key.
func RemoveAttr(n *html.Node, key string) {
	n.Attr = slices.DeleteFunc(n.Attr, func(a html.Attribute) bool { return a.Key == key })
}
