// Package sanitize strips presentation noise from fetched entry markup.
package sanitize

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Noise matches the subtrees removed from every page: section edit
// links, floated decorations and figures with their captions.
var Noise = cascadia.MustCompile(".mw-editsection, .floatright, figure")

// Sanitize detaches every noise subtree below root. The tree is modified
// in place; running it again finds nothing left to remove.
func Sanitize(root *html.Node) {
	goquery.NewDocumentFromNode(root).FindMatcher(Noise).Remove()
}
