package reader

import (
	"net/url"
	"regexp"
	"strings"
)

// Shape is the kind of page an intercepted link points at.
type Shape int

const (
	// Unrecognized targets spawn no session.
	Unrecognized Shape = iota
	// Reconstruction is /wiki/Reconstruction:LANGUAGE/WORD.
	Reconstruction
	// LanguageAnchor is /wiki/WORD#LANGUAGE.
	LanguageAnchor
	// Entry is /wiki/WORD.
	Entry
	// Namespace is any other /wiki/ page, e.g. /wiki/Category:PAGE.
	Namespace
)

func (s Shape) String() string {
	switch s {
	case Reconstruction:
		return "reconstruction"
	case LanguageAnchor:
		return "language-anchor"
	case Entry:
		return "entry"
	case Namespace:
		return "namespace"
	}
	return "unrecognized"
}

// Target is a classified link target.
type Target struct {
	Shape    Shape
	Page     string
	Language string
}

var (
	reconstructionRe = regexp.MustCompile(`^/wiki/(Reconstruction:([^/]+)/.*)$`)
	languageAnchorRe = regexp.MustCompile(`^/wiki/([^/:]+)#(.*)$`)
	entryRe          = regexp.MustCompile(`^/wiki/([^/:]+)$`)
	namespaceRe      = regexp.MustCompile(`^/wiki/([^/]+)$`)
)

// ParseTarget classifies an intercepted href. Shapes are tried in
// priority order; page names and languages are unescaped. A fragment on a
// reconstruction link is dropped from its page name.
func ParseTarget(href string) Target {
	if m := reconstructionRe.FindStringSubmatch(href); m != nil {
		name, _, _ := strings.Cut(m[1], "#")
		return Target{Shape: Reconstruction, Page: unescape(name), Language: unescape(m[2])}
	}
	if m := languageAnchorRe.FindStringSubmatch(href); m != nil {
		return Target{Shape: LanguageAnchor, Page: unescape(m[1]), Language: unescape(m[2])}
	}
	if m := entryRe.FindStringSubmatch(href); m != nil {
		return Target{Shape: Entry, Page: unescape(m[1])}
	}
	if m := namespaceRe.FindStringSubmatch(href); m != nil {
		return Target{Shape: Namespace, Page: unescape(m[1])}
	}
	return Target{Shape: Unrecognized}
}

func unescape(s string) string {
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}
