package render

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"lookup/links"
	"lookup/page"
)

// DefaultWidth is used when no usable width is given.
const DefaultWidth = 80

var (
	headingStyle  = Style{Bold: true}
	linkStyle     = Style{Underline: true, FgColor: 36}
	markerStyle   = Style{Dim: true, FgColor: 36}
	externalStyle = Style{Dim: true}
	boldStyle     = Style{Bold: true}
	italicStyle   = Style{Underline: true}
)

// Options controls how a fragment is drawn.
type Options struct {
	Width int
	Color bool
}

type segment struct {
	text  string
	style Style
}

// token is an unbreakable run of glued segments, e.g. a link and its marker.
type token []segment

func (t token) width() int {
	w := 0
	for _, s := range t {
		w += StringWidth(s.text)
	}
	return w
}

type renderer struct {
	opts   Options
	out    []string
	tokens []token
	space  bool
	indent int
	prefix string
}

// Fragment draws f as wrapped lines of terminal text. Intercepted links
// are suffixed with their index in f, which is what Fragment.Follow takes.
func Fragment(f *page.Fragment, opts Options) string {
	if f == nil || f.Root == nil {
		return ""
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	r := &renderer{opts: opts, space: true}
	for c := f.Root.FirstChild; c != nil; c = c.NextSibling {
		r.node(c, Style{})
	}
	r.flush()
	for len(r.out) > 0 && r.out[len(r.out)-1] == "" {
		r.out = r.out[:len(r.out)-1]
	}
	return strings.Join(r.out, "\n")
}

func (r *renderer) node(n *html.Node, style Style) {
	switch n.Type {
	case html.TextNode:
		r.text(n.Data, style)
		return
	case html.ElementNode:
	default:
		r.children(n, style)
		return
	}

	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Head, atom.Noscript:
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		r.block()
		r.children(n, merge(style, headingStyle))
		r.block()
	case atom.P, atom.Div, atom.Dl, atom.Dd, atom.Dt, atom.Table, atom.Tr, atom.Blockquote, atom.Section:
		r.block()
		r.children(n, style)
		r.block()
	case atom.Br:
		r.flush()
	case atom.Ol, atom.Ul:
		r.list(n, style)
	case atom.A:
		r.anchor(n, style)
	case atom.B, atom.Strong:
		r.children(n, merge(style, boldStyle))
	case atom.I, atom.Em:
		r.children(n, merge(style, italicStyle))
	default:
		r.children(n, style)
	}
}

func (r *renderer) children(n *html.Node, style Style) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.node(c, style)
	}
}

func (r *renderer) list(n *html.Node, style Style) {
	r.flush()
	ordered := n.DataAtom == atom.Ol
	count := 0
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.DataAtom != atom.Li {
			continue
		}
		count++
		r.flush()
		if ordered {
			r.prefix = strconv.Itoa(count) + ". "
		} else {
			r.prefix = "• "
		}
		r.indent += 3
		r.children(li, style)
		r.flush()
		r.indent -= 3
	}
	r.prefix = ""
	if r.indent == 0 {
		r.block()
	} else {
		r.flush()
	}
}

func (r *renderer) anchor(n *html.Node, style Style) {
	if idx, ok := links.Attr(n, "data-link"); ok {
		r.children(n, merge(style, linkStyle))
		r.glue("["+idx+"]", markerStyle)
		return
	}
	if links.HasClass(n, "external") || links.HasClass(n, "extiw") {
		r.children(n, merge(style, externalStyle))
		return
	}
	r.children(n, style)
}

func (r *renderer) text(s string, style Style) {
	if s == "" {
		return
	}
	leading := isSpace(s[0])
	for i, w := range strings.Fields(s) {
		if i == 0 && !leading && !r.space && len(r.tokens) > 0 {
			r.glue(w, style)
		} else {
			r.tokens = append(r.tokens, token{{w, style}})
		}
	}
	r.space = isSpace(s[len(s)-1])
}

func (r *renderer) glue(s string, style Style) {
	if len(r.tokens) == 0 {
		r.tokens = append(r.tokens, token{{s, style}})
	} else {
		last := len(r.tokens) - 1
		r.tokens[last] = append(r.tokens[last], segment{s, style})
	}
	r.space = false
}

// block ends the current paragraph and separates it with a blank line.
func (r *renderer) block() {
	r.flush()
	if len(r.out) > 0 && r.out[len(r.out)-1] != "" {
		r.out = append(r.out, "")
	}
}

func (r *renderer) flush() {
	r.space = true
	if len(r.tokens) == 0 {
		return
	}
	lead := strings.Repeat(" ", max(r.indent-StringWidth(r.prefix), 0)) + r.prefix
	pad := strings.Repeat(" ", r.indent)
	avail := max(r.opts.Width-r.indent, 1)

	var line strings.Builder
	width := 0
	first := true
	emit := func() {
		if first {
			r.out = append(r.out, lead+line.String())
			first = false
		} else {
			r.out = append(r.out, pad+line.String())
		}
		line.Reset()
		width = 0
	}
	for _, t := range r.tokens {
		tw := t.width()
		if width > 0 && width+1+tw > avail {
			emit()
		}
		if width > 0 {
			line.WriteByte(' ')
			width++
		}
		line.WriteString(r.paint(t))
		width += tw
	}
	emit()
	r.tokens = r.tokens[:0]
	r.prefix = ""
}

func (r *renderer) paint(t token) string {
	var sb strings.Builder
	for _, s := range t {
		if r.opts.Color && s.style != (Style{}) {
			sb.WriteString(styleSequence(s.style))
			sb.WriteString(s.text)
			sb.WriteString("\033[0m")
		} else {
			sb.WriteString(s.text)
		}
	}
	return sb.String()
}

func merge(a, b Style) Style {
	a.Bold = a.Bold || b.Bold
	a.Dim = a.Dim || b.Dim
	a.Underline = a.Underline || b.Underline
	if b.FgColor != 0 {
		a.FgColor = b.FgColor
	}
	return a
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r' || b == '\f'
}
