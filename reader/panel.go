package reader

import (
	"context"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"lookup/history"
	"lookup/page"
	"lookup/settings"
)

// Display is the presentation side of a panel. Its methods are only ever
// called from the panel's Run goroutine.
type Display interface {
	Show(f *page.Fragment)
	SetLoading(loading bool)
	SetFilters(languages, ignored []string)
}

type eventKind int

const (
	cmdLookup eventKind = iota
	cmdFollow
	cmdBack
	cmdFilters
	cmdSelect
	evLoading
	evTransient
	evDisplay
	evFailed
)

type event struct {
	kind     eventKind
	session  uuid.UUID
	text     string
	filters  settings.Filters
	fragment *page.Fragment
}

// Options configures a Panel.
type Options struct {
	HistorySize int
	Logger      *slog.Logger
}

// Panel owns the single display slot. User commands and session results
// arrive on one channel and are applied in order by Run, so the history
// and the filter snapshot are only touched from that goroutine.
type Panel struct {
	fetch   Fetcher
	format  *page.Formatter
	display Display
	log     *slog.Logger
	events  chan event

	history   *history.History[*page.Fragment]
	current   *page.Fragment
	loading   bool
	languages []string
	selected  string
	ignored   []string
}

// NewPanel creates a panel. Call Run to start processing.
func NewPanel(fetch Fetcher, format *page.Formatter, display Display, opts Options) *Panel {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Panel{
		fetch:   fetch,
		format:  format,
		display: display,
		log:     log,
		events:  make(chan event, 64),
		history: history.New[*page.Fragment](opts.HistorySize),
	}
}

// Run processes commands and session results until ctx is done. Sessions
// spawned by the panel run under ctx as well.
func (p *Panel) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-p.events:
			p.handle(ctx, ev)
		}
	}
}

// Lookup looks up a word in the selected language.
func (p *Panel) Lookup(word string) {
	p.events <- event{kind: cmdLookup, text: word}
}

// Follow handles a click on an intercepted link.
func (p *Panel) Follow(href string) {
	p.events <- event{kind: cmdFollow, text: href}
}

// Back shows the previously displayed content, if any.
func (p *Panel) Back() {
	p.events <- event{kind: cmdBack}
}

// ApplyFilters replaces the filter snapshot. The first language becomes
// the selected one. The panel keeps its own copy of f.
func (p *Panel) ApplyFilters(f settings.Filters) {
	f.Languages = slices.Clone(f.Languages)
	f.Sections = slices.Clone(f.Sections)
	p.events <- event{kind: cmdFilters, filters: f}
}

// SelectLanguage restricts lookups to one of the configured languages.
// An empty language shows every language.
func (p *Panel) SelectLanguage(lang string) {
	p.events <- event{kind: cmdSelect, text: lang}
}

func (p *Panel) handle(ctx context.Context, ev event) {
	switch ev.kind {
	case cmdLookup:
		p.spawn(ctx, page.Request{
			Name:     ev.text,
			Language: p.selected,
			Ignored:  slices.Clone(p.ignored),
			Format:   true,
		})

	case cmdFollow:
		if req, ok := p.requestFor(ev.text); ok {
			p.spawn(ctx, req)
		}

	case cmdBack:
		if f, ok := p.history.Pop(); ok {
			p.current = f
			p.display.Show(f)
		}

	case cmdFilters:
		p.languages = slices.Clone(ev.filters.Languages)
		p.selected = ev.filters.Selected()
		p.ignored = ev.filters.IgnoredSections()
		p.display.SetFilters(slices.Clone(p.languages), slices.Clone(p.ignored))

	case cmdSelect:
		if ev.text != "" && !slices.Contains(p.languages, ev.text) {
			p.log.Warn("language not configured", "language", ev.text)
			return
		}
		p.selected = ev.text

	case evLoading:
		p.setLoading(true)

	case evTransient:
		p.setContent(ev.fragment)

	case evDisplay:
		p.setContent(ev.fragment)
		p.setLoading(false)

	case evFailed:
		p.setLoading(false)
	}
}

// requestFor scopes a new session by the shape of a clicked link.
func (p *Panel) requestFor(href string) (page.Request, bool) {
	t := ParseTarget(href)
	switch t.Shape {
	case Reconstruction, LanguageAnchor:
		return page.Request{Name: t.Page, Language: t.Language, Ignored: slices.Clone(p.ignored), Format: true}, true
	case Entry:
		return page.Request{Name: t.Page, Ignored: slices.Clone(p.ignored), Format: true}, true
	case Namespace:
		return page.Request{Name: t.Page}, true
	}
	p.log.Warn("unknown link target", "href", href)
	return page.Request{}, false
}

func (p *Panel) spawn(ctx context.Context, req page.Request) {
	post := func(ev event) {
		select {
		case p.events <- ev:
		case <-ctx.Done():
		}
	}
	s := newSession(req, p.fetch, p.format, p.Follow, post, p.log)
	s.log.Debug("session started", "page", req.Name, "language", req.Language, "format", req.Format)
	go s.Run(ctx)
}

// setContent records what was on screen before showing f.
func (p *Panel) setContent(f *page.Fragment) {
	if p.current != nil {
		p.history.Push(p.current)
	}
	p.current = f
	p.display.Show(f)
}

func (p *Panel) setLoading(loading bool) {
	if p.loading == loading {
		return
	}
	p.loading = loading
	p.display.SetLoading(loading)
}
