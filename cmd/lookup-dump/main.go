// lookup-dump fetches and formats one page and prints the result, for
// checking what the reader would show.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	"golang.org/x/net/html"

	"lookup/config"
	"lookup/fetcher"
	"lookup/formof"
	"lookup/page"
	"lookup/render"
	"lookup/settings"
)

var CLI struct {
	Language string   `name:"lang" short:"l" help:"Keep only this language"`
	Ignore   []string `name:"ignore" short:"i" help:"Section id prefixes to drop (default: the built-in ignore list)"`
	Raw      bool     `name:"raw" help:"Skip restructuring; fetch the plain page view"`
	FormOf   bool     `name:"form-of" short:"f" help:"Print the form-of match instead of the page"`
	Text     bool     `name:"text" short:"t" help:"Print terminal text instead of HTML"`
	Verbose  bool     `name:"verbose" short:"v" help:"Log to stderr"`
	Page     []string `arg:"" help:"Page name"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("lookup-dump"),
		kong.Description("Fetch and format one Wiktionary page."),
	)
	ctx.FatalIfErrorf(run())
}

func run() error {
	level := slog.LevelWarn
	if CLI.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	client := fetcher.New(fetcher.Options{
		APIURL:          cfg.Wiktionary.APIURL,
		PageURL:         cfg.Wiktionary.PageURL,
		SearchURL:       cfg.Wiktionary.SearchURL,
		UserAgent:       cfg.Fetcher.UserAgent,
		TimeoutSeconds:  cfg.Fetcher.TimeoutSeconds,
		ChromePath:      cfg.Fetcher.ChromePath,
		BrowserFallback: cfg.Fetcher.BrowserFallback,
	})

	req := page.Request{
		Name:     strings.Join(CLI.Page, " "),
		Language: CLI.Language,
		Ignored:  CLI.Ignore,
		Format:   !CLI.Raw,
	}
	if req.Ignored == nil {
		req.Ignored = settings.Default().IgnoredSections()
	}

	ctx := context.Background()
	var p *fetcher.Page
	if req.Format {
		p, err = client.Parse(ctx, req.Name)
	} else {
		p, err = client.View(ctx, req.Name)
	}
	if err != nil {
		return err
	}
	if p.Redirected != "" {
		req.Name = p.Redirected
	}

	start := time.Now()
	doc, err := html.Parse(strings.NewReader(p.HTML))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", req.Name, err)
	}
	f := page.NewFormatter(cfg.Wiktionary.PageURL, log).Format(doc, req, nil)
	formatTime := time.Since(start)

	if CLI.FormOf {
		m, ok := formof.Resolve(f)
		if !ok {
			return fmt.Errorf("%s is not an unambiguous form-of entry", req.Name)
		}
		fmt.Printf("lemma: %s\n", m.Lemma)
		f = m.Definition
	}

	if CLI.Text {
		width := cfg.Rendering.DefaultWidth
		if w, _, err := render.TerminalSize(); err == nil {
			width = w
		}
		fmt.Println(render.Fragment(f, render.Options{Width: width, Color: render.IsTerminal(os.Stdout)}))
	} else {
		out, err := f.HTML()
		if err != nil {
			return err
		}
		fmt.Println(out)
	}

	via := "api"
	if p.UsedBrowser {
		via = "browser"
	} else if !req.Format {
		via = "view"
	}
	fmt.Fprintf(os.Stderr, "%s: %s fetched via %s in %s, formatted in %s, %d links\n",
		req.Name,
		humanize.Bytes(uint64(len(p.HTML))),
		via,
		p.FetchTime.Round(time.Millisecond),
		formatTime.Round(time.Microsecond),
		len(f.Links),
	)
	return nil
}
