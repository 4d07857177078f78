// Package reader drives lookups: sessions fetch and format pages, follow
// form-of redirects, and report back to a Panel that owns the display slot
// and the navigation history.
package reader

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"lookup/fetcher"
	"lookup/formof"
	"lookup/page"
)

// State is the lifecycle state of a Session.
type State int32

const (
	Idle State = iota
	Loading
	Displayed
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Displayed:
		return "displayed"
	case Failed:
		return "failed"
	}
	return "idle"
}

// Fetcher is the transport sessions fetch pages through.
type Fetcher interface {
	Parse(ctx context.Context, name string) (*fetcher.Page, error)
	View(ctx context.Context, name string) (*fetcher.Page, error)
}

// Session is one independent lookup. It never touches the display itself;
// everything it produces is posted as an event.
type Session struct {
	ID      uuid.UUID
	Request page.Request

	fetch  Fetcher
	format *page.Formatter
	follow func(string)
	post   func(event)
	log    *slog.Logger
	state  atomic.Int32
}

func newSession(req page.Request, fetch Fetcher, format *page.Formatter, follow func(string), post func(event), log *slog.Logger) *Session {
	s := &Session{
		ID:      uuid.New(),
		Request: req,
		fetch:   fetch,
		format:  format,
		follow:  follow,
		post:    post,
	}
	s.log = log.With("session", s.ID.String())
	return s
}

// State returns the current state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Run fetches the requested page until it is displayed or fails. A failed
// fetch of a name with upper-case letters is retried once lower-cased; an
// unambiguous form-of entry is shown briefly and its lemma fetched next.
func (s *Session) Run(ctx context.Context) State {
	name := s.Request.Name
	seen := make(map[string]bool)

	for {
		s.state.Store(int32(Loading))
		s.post(event{kind: evLoading, session: s.ID})

		frag, err := s.load(ctx, name)
		if err != nil {
			if lower := strings.ToLower(name); lower != name {
				s.log.Info("lookup failed, retrying lower-case", "page", name, "error", err)
				name = lower
				continue
			}
			s.log.Info("lookup failed", "page", name, "error", err)
			s.state.Store(int32(Failed))
			s.post(event{kind: evFailed, session: s.ID})
			return Failed
		}
		seen[name] = true

		if m, ok := formof.Resolve(frag); ok {
			if seen[m.Lemma] {
				s.log.Warn("form-of cycle, showing entry as is", "page", name, "lemma", m.Lemma)
			} else {
				s.log.Info("following form-of", "page", name, "lemma", m.Lemma)
				s.post(event{kind: evTransient, session: s.ID, fragment: m.Definition})
				name = m.Lemma
				continue
			}
		}

		s.state.Store(int32(Displayed))
		s.post(event{kind: evDisplay, session: s.ID, fragment: frag})
		return Displayed
	}
}

func (s *Session) load(ctx context.Context, name string) (*page.Fragment, error) {
	get := s.fetch.Parse
	if !s.Request.Format {
		get = s.fetch.View
	}

	p, err := get(ctx, name)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(strings.NewReader(p.HTML))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}

	req := s.Request
	req.Name = name
	if p.Redirected != "" {
		req.Name = p.Redirected
	}
	return s.format.Format(doc, req, s.follow), nil
}
