package reader

import (
	"context"
	"errors"
	"log/slog"

	"lookup/page"
)

// ErrNotFound is returned by Lookup when no page could be displayed.
var ErrNotFound = errors.New("no entry found")

// Lookup runs a single session to completion without a panel and returns
// the fragment it displayed. Links in the result follow to nothing.
func Lookup(ctx context.Context, fetch Fetcher, format *page.Formatter, req page.Request, log *slog.Logger) (*page.Fragment, error) {
	if log == nil {
		log = slog.Default()
	}

	var shown *page.Fragment
	post := func(ev event) {
		if ev.kind == evDisplay {
			shown = ev.fragment
		}
	}
	s := newSession(req, fetch, format, nil, post, log)
	if s.Run(ctx) != Displayed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return shown, nil
}
