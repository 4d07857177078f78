// Package fetcher retrieves dictionary entries from the MediaWiki parse API,
// with a plain page view for non-entry pages and an optional headless
// browser fallback.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"lookup/page"
)

const (
	DefaultAPIURL  = "https://en.wiktionary.org/w/api.php?origin=*&action=parse&format=json&formatversion=2&page="
	DefaultPageURL = page.DefaultPageURL

	// DefaultSearchURL is the opensearch endpoint; the escaped query is appended.
	DefaultSearchURL = "https://en.wiktionary.org/w/api.php?action=opensearch&format=json&limit=10&search="
)

var (
	// ErrMissingPage is returned when the wiki has no page by that name.
	ErrMissingPage = errors.New("page does not exist")
	// ErrEmptyResponse is returned when the API answers without markup.
	ErrEmptyResponse = errors.New("empty response")
)

// Page is one fetched page.
type Page struct {
	Title       string
	HTML        string
	Redirected  string // last redirect target reported by the API, if any
	URL         string
	UsedBrowser bool
	FetchTime   time.Duration
}

// Options configures the fetcher behavior.
type Options struct {
	APIURL          string
	PageURL         string
	SearchURL       string
	UserAgent       string
	TimeoutSeconds  int
	ChromePath      string // Path to Chrome binary (empty = auto-detect)
	BrowserFallback bool   // retry failed plain views in headless Chrome
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		APIURL:         DefaultAPIURL,
		PageURL:        DefaultPageURL,
		SearchURL:      DefaultSearchURL,
		UserAgent:      "lookup/1.0 (Terminal Dictionary)",
		TimeoutSeconds: 15,
	}
}

// Client fetches entry markup.
type Client struct {
	opts Options
	http *http.Client
}

// New creates a client. Zero fields in o fall back to DefaultOptions.
func New(o Options) *Client {
	d := DefaultOptions()
	if o.APIURL == "" {
		o.APIURL = d.APIURL
	}
	if o.PageURL == "" {
		o.PageURL = d.PageURL
	}
	if o.SearchURL == "" {
		o.SearchURL = d.SearchURL
	}
	if o.UserAgent == "" {
		o.UserAgent = d.UserAgent
	}
	if o.TimeoutSeconds <= 0 {
		o.TimeoutSeconds = d.TimeoutSeconds
	}
	return &Client{
		opts: o,
		http: &http.Client{Timeout: time.Duration(o.TimeoutSeconds) * time.Second},
	}
}

type apiResponse struct {
	Parse *struct {
		Title     string `json:"title"`
		Text      string `json:"text"`
		Redirects []struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"redirects"`
	} `json:"parse"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// Parse fetches the parsed markup of an entry through the API.
func (c *Client) Parse(ctx context.Context, name string) (*Page, error) {
	start := time.Now()
	target := c.opts.APIURL + url.QueryEscape(name)

	body, err := c.get(ctx, target)
	if err != nil {
		return nil, err
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%s: %w (%s)", name, ErrMissingPage, resp.Error.Code)
	}
	if resp.Parse == nil || resp.Parse.Text == "" {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyResponse)
	}

	p := &Page{
		Title:     resp.Parse.Title,
		HTML:      resp.Parse.Text,
		URL:       target,
		FetchTime: time.Since(start),
	}
	if n := len(resp.Parse.Redirects); n > 0 {
		p.Redirected = resp.Parse.Redirects[n-1].To
	}
	return p, nil
}

// View fetches the plain rendered content of a page, without the API
// wrapper. Used for pages that are shown unformatted.
func (c *Client) View(ctx context.Context, name string) (*Page, error) {
	start := time.Now()
	target := c.opts.PageURL + page.WikiPath(name) + "?action=render"

	body, err := c.get(ctx, target)
	if err != nil {
		if !c.opts.BrowserFallback || errors.Is(err, ErrMissingPage) {
			return nil, err
		}
		return c.WithBrowser(ctx, target)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyResponse)
	}

	return &Page{
		Title:     name,
		HTML:      string(body),
		URL:       target,
		FetchTime: time.Since(start),
	}, nil
}

// Search returns the titles of pages whose names start with query, best
// match first.
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	body, err := c.get(ctx, c.opts.SearchURL+url.QueryEscape(query))
	if err != nil {
		return nil, err
	}

	// ["query", ["title", ...], ["description", ...], ["url", ...]]
	var resp []json.RawMessage
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding search for %s: %w", query, err)
	}
	if len(resp) < 2 {
		return nil, fmt.Errorf("search for %s: %w", query, ErrEmptyResponse)
	}
	var titles []string
	if err := json.Unmarshal(resp[1], &titles); err != nil {
		return nil, fmt.Errorf("decoding search titles for %s: %w", query, err)
	}
	return titles, nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("fetching %s: %w", target, ErrMissingPage)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %d", target, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

// WithBrowser loads a URL in headless Chrome and returns the rendered body.
func (c *Client) WithBrowser(ctx context.Context, target string) (*Page, error) {
	start := time.Now()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(c.opts.UserAgent),
	)
	if c.opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(c.opts.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()

	// Browser fetches get extra time
	timeout := time.Duration(c.opts.TimeoutSeconds)*time.Second + 15*time.Second
	bctx, cancel := context.WithTimeout(allocCtx, timeout)
	defer cancel()

	bctx, cancel = chromedp.NewContext(bctx)
	defer cancel()

	var body string
	err := chromedp.Run(bctx,
		network.SetExtraHTTPHeaders(network.Headers(map[string]interface{}{
			"Accept":          "text/html,application/xhtml+xml",
			"Accept-Language": "en-US,en;q=0.9",
		})),
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("body", &body, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("browser fetch: %w", err)
	}

	return &Page{
		HTML:        body,
		URL:         target,
		UsedBrowser: true,
		FetchTime:   time.Since(start),
	}, nil
}
