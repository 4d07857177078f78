// Lookup is a terminal Wiktionary reader: look a word up, follow its
// cross-references and step back through what was shown.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"lookup/config"
	"lookup/fetcher"
	"lookup/page"
	"lookup/reader"
	"lookup/render"
	"lookup/settings"
)

func main() {
	word := ""
	printMode := false
	initConfig := false

	for _, arg := range os.Args[1:] {
		switch arg {
		case "-p", "--print":
			printMode = true
		case "--init-config":
			initConfig = true
		case "-h", "--help":
			printUsage()
			return
		default:
			if word == "" {
				word = arg
			} else {
				word += " " + arg
			}
		}
	}

	// Generate default config and exit
	if initConfig {
		fmt.Print(config.DefaultTOML())
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, config.FormatError(err))
		os.Exit(1)
	}

	if printMode {
		if err := runPrint(cfg, word); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, word); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Lookup - Terminal Wiktionary Reader

Usage: lookup [options] [word]

Options:
  -p, --print       Print the entry to stdout (one-shot mode)
  --init-config     Output default config (redirect to ~/.config/lookup/config.toml)
  -h, --help        Show this help

Commands (interactive):
  <word>            Look a word up in the selected language
  <n>               Follow link [n] of the entry on screen
  :b                Back to the previous entry
  :search X         List page names starting with X
  :lang             List configured languages
  :lang use X       Restrict lookups to language X (:lang use * for all)
  :lang add X       Add language X
  :lang rm X        Remove language X
  :sections         List sections and whether they are hidden
  :toggle S         Hide or show section S
  :q                Quit

Configuration:
  Config file: ~/.config/lookup/config.toml
  Generate with: lookup --init-config > ~/.config/lookup/config.toml`)
}

// app bundles what both shells need from the configuration.
type app struct {
	cfg      *config.Config
	client   *fetcher.Client
	format   *page.Formatter
	store    settings.Store
	closeDB  func() error
	filters  settings.Filters
	log      *slog.Logger
	logClose func() error
}

func newApp(cfg *config.Config) *app {
	a := &app{cfg: cfg, closeDB: func() error { return nil }, logClose: func() error { return nil }}

	// Logs go to lookup.log; stdout carries the entries.
	var logTo io.Writer = io.Discard
	if dir, err := config.Dir(); err == nil {
		if err := os.MkdirAll(dir, 0o755); err == nil {
			if f, err := os.OpenFile(filepath.Join(dir, "lookup.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
				logTo = f
				a.logClose = f.Close
			}
		}
	}
	a.log = slog.New(slog.NewTextHandler(logTo, &slog.HandlerOptions{Level: slog.LevelDebug}))

	a.client = fetcher.New(fetcher.Options{
		APIURL:          cfg.Wiktionary.APIURL,
		PageURL:         cfg.Wiktionary.PageURL,
		SearchURL:       cfg.Wiktionary.SearchURL,
		UserAgent:       cfg.Fetcher.UserAgent,
		TimeoutSeconds:  cfg.Fetcher.TimeoutSeconds,
		ChromePath:      cfg.Fetcher.ChromePath,
		BrowserFallback: cfg.Fetcher.BrowserFallback,
	})
	a.format = page.NewFormatter(cfg.Wiktionary.PageURL, a.log)

	a.store = settings.NewMemoryStore()
	if path, err := cfg.SettingsPath(); err != nil {
		a.log.Warn("settings path unavailable, using memory store", "error", err)
	} else if db, err := settings.OpenSQLite(path); err != nil {
		a.log.Warn("opening settings failed, using memory store", "path", path, "error", err)
	} else {
		a.store = db
		a.closeDB = db.Close
	}
	a.filters = settings.Load(a.store, a.log)
	return a
}

func (a *app) Close() {
	if err := a.closeDB(); err != nil {
		a.log.Warn("closing settings", "error", err)
	}
	a.logClose()
}

func (a *app) width() int {
	if w, _, err := render.TerminalSize(); err == nil && w > 0 {
		return w
	}
	return a.cfg.Rendering.DefaultWidth
}

func runPrint(cfg *config.Config, word string) error {
	if word == "" {
		return fmt.Errorf("no word given")
	}

	a := newApp(cfg)
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	req := page.Request{
		Name:     word,
		Language: a.filters.Selected(),
		Ignored:  a.filters.IgnoredSections(),
		Format:   true,
	}
	f, err := reader.Lookup(ctx, a.client, a.format, req, a.log)
	if errors.Is(err, reader.ErrNotFound) {
		return fmt.Errorf("no entry found for %q", word)
	}
	if err != nil {
		return err
	}
	fmt.Println(render.Fragment(f, render.Options{Width: a.width(), Color: render.IsTerminal(os.Stdout)}))
	return nil
}

func run(cfg *config.Config, word string) error {
	a := newApp(cfg)
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	d := newTermDisplay(os.Stdout, os.Stderr, a.width(), render.IsTerminal(os.Stdout))
	panel := reader.NewPanel(a.client, a.format, d, reader.Options{HistorySize: cfg.History.Size, Logger: a.log})
	go panel.Run(ctx)

	sh := &shell{app: a, ctx: ctx, panel: panel, display: d, out: os.Stdout}
	panel.ApplyFilters(a.filters)
	sh.selected = a.filters.Selected()
	if word != "" {
		panel.Lookup(word)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			d.Close()
			return nil
		case line, ok := <-lines:
			if !ok || !sh.exec(strings.TrimSpace(line)) {
				d.Close()
				return nil
			}
		}
	}
}

// termDisplay prints each shown entry below the previous one.
type termDisplay struct {
	out       io.Writer
	width     int
	color     bool
	indicator *render.Indicator

	mu      sync.Mutex
	current *page.Fragment
	loading bool
}

func newTermDisplay(out, status io.Writer, width int, color bool) *termDisplay {
	return &termDisplay{
		out:       out,
		width:     width,
		color:     color,
		indicator: render.NewIndicator(status, "looking up"),
	}
}

func (d *termDisplay) Show(f *page.Fragment) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.indicator.Stop()
	d.current = f
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, render.Fragment(f, render.Options{Width: d.width, Color: d.color}))
	fmt.Fprint(d.out, "\n> ")
	if d.loading {
		d.indicator.Start()
	}
}

func (d *termDisplay) SetLoading(loading bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loading = loading
	if loading {
		d.indicator.Start()
	} else {
		d.indicator.Stop()
	}
}

func (d *termDisplay) SetFilters(languages, ignored []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	status := fmt.Sprintf("languages: %s · %d sections hidden", strings.Join(languages, ", "), len(ignored))
	fmt.Fprintln(d.out, render.Truncate(status, d.width))
	fmt.Fprint(d.out, "> ")
}

func (d *termDisplay) fragment() *page.Fragment {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

func (d *termDisplay) Close() {
	d.indicator.Stop()
}

// shell interprets one input line at a time.
type shell struct {
	*app
	ctx      context.Context
	panel    *reader.Panel
	display  *termDisplay
	out      io.Writer
	selected string
}

// exec runs one command and reports whether the shell should continue.
func (sh *shell) exec(line string) bool {
	if line == "" {
		fmt.Fprint(sh.out, "> ")
		return true
	}

	if n, err := strconv.Atoi(line); err == nil {
		f := sh.display.fragment()
		if f == nil || !f.Follow(n) {
			sh.printf("no link [%d]", n)
		}
		return true
	}

	if !strings.HasPrefix(line, ":") {
		sh.panel.Lookup(line)
		return true
	}

	cmd, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "q", "quit":
		return false
	case "b", "back":
		sh.panel.Back()
	case "lang":
		sh.language(arg)
	case "search":
		sh.search(arg)
	case "sections":
		sh.sections()
	case "toggle":
		if arg == "" {
			sh.printf("usage: :toggle SECTION")
			return true
		}
		sh.filters.ToggleSection(arg)
		sh.save()
	default:
		sh.printf("unknown command :%s (try lookup -h)", cmd)
	}
	return true
}

func (sh *shell) language(arg string) {
	sub, name, _ := strings.Cut(arg, " ")
	name = strings.TrimSpace(name)
	switch sub {
	case "":
		var marked []string
		for _, l := range sh.filters.Languages {
			if l == sh.selected {
				l = "*" + l
			}
			marked = append(marked, l)
		}
		if sh.selected == "" {
			marked = append(marked, "(all languages)")
		}
		sh.printf("%s", strings.Join(marked, " "))
	case "use":
		if name == "*" {
			name = ""
		}
		sh.selected = name
		sh.panel.SelectLanguage(name)
	case "add":
		if sh.filters.AddLanguage(name) {
			sh.save()
		}
	case "rm":
		if sh.filters.RemoveLanguage(name) {
			sh.save()
		}
	default:
		sh.printf("usage: :lang [use|add|rm] LANGUAGE")
	}
}

func (sh *shell) search(query string) {
	if query == "" {
		sh.printf("usage: :search PREFIX")
		return
	}
	titles, err := sh.client.Search(sh.ctx, query)
	if err != nil {
		sh.log.Warn("search failed", "query", query, "error", err)
		sh.printf("search failed")
		return
	}
	if len(titles) == 0 {
		sh.printf("no pages start with %q", query)
		return
	}
	sh.printf("%s", strings.Join(titles, " · "))
}

func (sh *shell) sections() {
	var parts []string
	for _, s := range sh.filters.Sections {
		mark := "+"
		if s.Ignored {
			mark = "-"
		}
		parts = append(parts, mark+s.Name)
	}
	for _, l := range render.WrapText(strings.Join(parts, " "), sh.display.width) {
		fmt.Fprintln(sh.out, l)
	}
	fmt.Fprint(sh.out, "> ")
}

// save persists the filters and hands the new snapshot to the panel,
// which resets the selected language to the first configured one.
func (sh *shell) save() {
	if err := sh.filters.Save(sh.store); err != nil {
		sh.log.Warn("saving settings", "error", err)
		sh.printf("settings not saved: %v", err)
	}
	sh.selected = sh.filters.Selected()
	sh.panel.ApplyFilters(sh.filters)
}

func (sh *shell) printf(format string, args ...any) {
	fmt.Fprintf(sh.out, format+"\n> ", args...)
}
