// Package formof recognizes entries that only say "inflected form of X".
package formof

import (
	"github.com/PuerkitoBio/goquery"

	"lookup/page"
)

// Match is an unambiguous form-of entry.
type Match struct {
	// Definition holds a copy of the matched form-of definition.
	Definition *page.Fragment
	Lemma      string
}

// Resolve reports whether f is a single-sense inflected-form entry and,
// if so, the lemma it points at. Pages with several senses never match.
func Resolve(f *page.Fragment) (Match, bool) {
	doc := goquery.NewDocumentFromNode(f.Root)

	items := doc.Find("ol li").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return !nested(s)
	})
	if items.Length() != 1 {
		return Match{}, false
	}

	defs := doc.Find(".form-of-definition").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return !(s.Is("span") && s.ParentsFiltered("li").FilterFunction(func(_ int, li *goquery.Selection) bool {
			return nested(li)
		}).Length() > 0)
	})
	if defs.Length() != 1 {
		return Match{}, false
	}

	anchors := defs.Find(".form-of-definition-link a").FilterFunction(func(_ int, a *goquery.Selection) bool {
		title, _ := a.Attr("title")
		return title != ""
	})
	if anchors.Length() != 1 {
		return Match{}, false
	}

	lemma, _ := anchors.Attr("title")
	return Match{Definition: f.Extract(defs.Get(0)), Lemma: lemma}, true
}

// nested reports whether an element sits inside an ordered list that is
// itself inside another ordered list.
func nested(s *goquery.Selection) bool {
	return s.ParentsFiltered("ol").Length() > 1
}
