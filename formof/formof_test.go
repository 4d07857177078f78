package formof

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"lookup/page"
)

func fragment(t *testing.T, body string, follow func(string)) *page.Fragment {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(`<div class="mw-content-ltr">` + body + `</div>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return page.NewFormatter("", nil).Format(doc, page.Request{Name: "test", Format: true}, follow)
}

const heading = `<div class="mw-heading mw-heading2"><h2 id="English">English</h2></div>
<div class="mw-heading mw-heading3"><h3 id="Verb">Verb</h3></div>`

const running = heading + `<ol><li><span class="form-of-definition use-with-mention">present participle and gerund of
<span class="form-of-definition-link"><i class="Latn mention" lang="en"><a href="/wiki/run#English" title="run">run</a></i></span></span>
<dl><dd><i>He is running.</i></dd></dl>
<ol><li><span class="form-of-definition">nested <span class="form-of-definition-link"><a href="/wiki/x" title="x">x</a></span></span></li></ol>
</li></ol>`

func TestResolveFormOf(t *testing.T) {
	var followed string
	m, ok := Resolve(fragment(t, running, func(href string) { followed = href }))
	if !ok {
		t.Fatal("expected a form-of match")
	}
	if m.Lemma != "run" {
		t.Errorf("lemma = %q, want run", m.Lemma)
	}

	out, err := m.Definition.HTML()
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if !strings.Contains(out, "present participle") {
		t.Errorf("definition fragment = %q", out)
	}
	if !m.Definition.Follow(0) || followed != "/wiki/run#English" {
		t.Errorf("definition link followed %q", followed)
	}
}

func TestResolveRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no definitions", heading + `<p>nothing here</p>`},
		{"two senses", heading + `<ol>
<li><span class="form-of-definition">plural of <span class="form-of-definition-link"><a href="/wiki/a" title="a">a</a></span></span></li>
<li>Another sense.</li></ol>`},
		{"two senses without form-of", heading + `<ol><li>One.</li><li>Two.</li></ol>`},
		{"no form-of span", heading + `<ol><li>A plain sense.</li></ol>`},
		{"two form-of spans", heading + `<ol><li>
<span class="form-of-definition">plural of <span class="form-of-definition-link"><a href="/wiki/a" title="a">a</a></span></span>
<span class="form-of-definition">genitive of <span class="form-of-definition-link"><a href="/wiki/b" title="b">b</a></span></span>
</li></ol>`},
		{"empty title", heading + `<ol><li><span class="form-of-definition">plural of
<span class="form-of-definition-link"><a href="/wiki/a" title="">a</a></span></span></li></ol>`},
		{"two lemma anchors", heading + `<ol><li><span class="form-of-definition">plural of
<span class="form-of-definition-link"><a href="/wiki/a" title="a">a</a></span> and
<span class="form-of-definition-link"><a href="/wiki/b" title="b">b</a></span></span></li></ol>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if m, ok := Resolve(fragment(t, tt.body, nil)); ok {
				t.Errorf("unexpected match with lemma %q", m.Lemma)
			}
		})
	}
}
