// Package page turns a fetched dictionary entry into a display fragment:
// noise is stripped, links are intercepted and, when formatting is on,
// the entry is cut down to the requested language and wanted sections.
package page

import (
	"log/slog"
	"net/url"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"lookup/links"
	"lookup/sanitize"
	"lookup/segment"
)

// DefaultPageURL is the canonical page prefix used for title blocks.
const DefaultPageURL = "https://en.wiktionary.org/wiki/"

// Request describes one navigation.
type Request struct {
	Name     string
	Language string   // empty keeps every language
	Ignored  []string // section id prefixes to drop
	Format   bool
}

// Formatter formats parsed entry pages.
type Formatter struct {
	PageURL string
	Logger  *slog.Logger
}

// NewFormatter creates a formatter linking titles below pageURL.
func NewFormatter(pageURL string, log *slog.Logger) *Formatter {
	if pageURL == "" {
		pageURL = DefaultPageURL
	}
	if log == nil {
		log = slog.Default()
	}
	return &Formatter{PageURL: pageURL, Logger: log}
}

// Format sanitizes doc, rewrites its links so that follow receives
// intercepted targets and, when req.Format is set, restructures it into a
// title block followed by one container per kept language.
func (f *Formatter) Format(doc *html.Node, req Request, follow func(string)) *Fragment {
	body := findBody(doc)
	if body == nil {
		body = doc
	}
	sanitize.Sanitize(body)
	all := links.Rewrite(body, follow, f.Logger)

	if !req.Format {
		return NewFragment(req.Name, body, all)
	}

	root := element("div", "class", "page")
	root.AppendChild(f.title(req.Name))
	for _, lang := range f.restructure(contentRoot(body), req) {
		root.AppendChild(lang)
	}
	return NewFragment(req.Name, root, all)
}

func (f *Formatter) restructure(content *html.Node, req Request) []*html.Node {
	var out []*html.Node
	for _, group := range segment.Split(children(content), isLanguageHeading) {
		language := headingID(group[0])
		if req.Language != "" && language != req.Language {
			continue
		}

		div := element("div", "class", "language", "data-language", language)
		appendAll(div, group[:1])

		rest := group[1:]
		sections := segment.Split(rest, isHeading)
		covered := 0
		for _, s := range sections {
			covered += len(s)
		}
		if intro := rest[:len(rest)-covered]; len(intro) > 0 {
			sec := element("div", "class", "section")
			appendAll(sec, intro)
			div.AppendChild(sec)
		}

		for _, s := range sections {
			id := headingID(s[0])
			if ignored(id, req.Ignored) {
				f.Logger.Debug("dropping section", "page", req.Name, "language", language, "section", id)
				continue
			}
			sec := element("div", "class", "section", "data-section", id)
			appendAll(sec, s)
			div.AppendChild(sec)
		}
		out = append(out, div)
	}
	return out
}

// title builds the clickable heading linking to the canonical page.
func (f *Formatter) title(name string) *html.Node {
	a := element("a",
		"class", "external",
		"target", "_blank",
		"href", f.PageURL+WikiPath(name),
	)
	h1 := element("h1")
	h1.AppendChild(&html.Node{Type: html.TextNode, Data: name})
	sup := element("sup")
	sup.AppendChild(&html.Node{Type: html.TextNode, Data: "↗"})
	h1.AppendChild(sup)
	a.AppendChild(h1)
	return a
}

// WikiPath escapes a page name for use in a /wiki/ URL, keeping subpage
// slashes intact.
func WikiPath(name string) string {
	parts := strings.Split(strings.ReplaceAll(name, " ", "_"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// ignored reports whether a section id starts with any ignored prefix.
// There is no word-boundary check: "Declension" also drops "Declensions".
func ignored(id string, prefixes []string) bool {
	return slices.ContainsFunc(prefixes, func(p string) bool {
		return strings.HasPrefix(id, p)
	})
}

func isLanguageHeading(n *html.Node) bool {
	return n.DataAtom == atom.H2 || (n.DataAtom == atom.Div && links.HasClass(n, "mw-heading2"))
}

func isHeading(n *html.Node) bool {
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	case atom.Div:
		return links.HasClass(n, "mw-heading")
	}
	return false
}

// headingID is the id of the heading's first element child, which is
// where both the headline span and the wrapped heading carry it.
func headingID(n *html.Node) string {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			if id, ok := links.Attr(c, "id"); ok {
				return id
			}
			break
		}
	}
	id, _ := links.Attr(n, "id")
	return id
}

// contentRoot finds the parser output container, falling back to body.
func contentRoot(body *html.Node) *html.Node {
	doc := goquery.NewDocumentFromNode(body)
	for _, sel := range []string{".mw-content-ltr", ".mw-parser-output"} {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			return s.Get(0)
		}
	}
	return body
}

func findBody(doc *html.Node) *html.Node {
	if doc.Type == html.ElementNode && doc.DataAtom == atom.Body {
		return doc
	}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

// children lists the element children of n.
func children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

func appendAll(parent *html.Node, nodes []*html.Node) {
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		parent.AppendChild(n)
	}
}

func element(tag string, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}
