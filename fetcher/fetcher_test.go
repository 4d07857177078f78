package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/w/api.php", func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "test-agent" {
			t.Errorf("User-Agent = %q, want test-agent", ua)
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("action") == "opensearch" {
			switch r.URL.Query().Get("search") {
			case "cat":
				w.Write([]byte(`["cat",["cat","catalogue","cattle"],["","",""],["u1","u2","u3"]]`))
			case "odd":
				w.Write([]byte(`{"unexpected":true}`))
			default:
				w.Write([]byte(`["zzz",[],[],[]]`))
			}
			return
		}
		switch r.URL.Query().Get("page") {
		case "cat":
			w.Write([]byte(`{"parse":{"title":"cat","pageid":1,"text":"<div class=\"mw-content-ltr\"><p>cat</p></div>"}}`))
		case "colour of":
			w.Write([]byte(`{"parse":{"title":"color","text":"<p>color</p>","redirects":[{"from":"colour of","to":"color"}]}}`))
		case "blank":
			w.Write([]byte(`{"parse":{"title":"blank","text":""}}`))
		case "broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.Write([]byte(`{"error":{"code":"missingtitle","info":"The page you specified doesn't exist."}}`))
		}
	})
	mux.HandleFunc("/wiki/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("action") != "render" {
			t.Errorf("plain view requested without action=render: %s", r.URL)
		}
		if r.URL.Path != "/wiki/Category:English_nouns" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<div class="mw-parser-output"><p>nouns</p></div>`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(srv *httptest.Server) *Client {
	return New(Options{
		APIURL:    srv.URL + "/w/api.php?action=parse&format=json&formatversion=2&page=",
		PageURL:   srv.URL + "/wiki/",
		SearchURL: srv.URL + "/w/api.php?action=opensearch&format=json&limit=10&search=",
		UserAgent: "test-agent",
	})
}

func TestParse(t *testing.T) {
	c := newClient(newServer(t))

	p, err := c.Parse(context.Background(), "cat")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Title != "cat" || !strings.Contains(p.HTML, "mw-content-ltr") {
		t.Errorf("unexpected page: %+v", p)
	}
	if p.Redirected != "" {
		t.Errorf("Redirected = %q, want empty", p.Redirected)
	}
}

func TestParseRedirect(t *testing.T) {
	c := newClient(newServer(t))

	p, err := c.Parse(context.Background(), "colour of")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Redirected != "color" {
		t.Errorf("Redirected = %q, want color", p.Redirected)
	}
}

func TestParseErrors(t *testing.T) {
	c := newClient(newServer(t))

	tests := []struct {
		name string
		want error
	}{
		{"Cat", ErrMissingPage},
		{"blank", ErrEmptyResponse},
		{"broken", nil},
	}
	for _, tt := range tests {
		_, err := c.Parse(context.Background(), tt.name)
		if err == nil {
			t.Errorf("Parse(%q) succeeded, want error", tt.name)
			continue
		}
		if tt.want != nil && !errors.Is(err, tt.want) {
			t.Errorf("Parse(%q) error = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestView(t *testing.T) {
	c := newClient(newServer(t))

	p, err := c.View(context.Background(), "Category:English nouns")
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	if !strings.Contains(p.HTML, "nouns") || p.UsedBrowser {
		t.Errorf("unexpected page: %+v", p)
	}

	if _, err := c.View(context.Background(), "Category:Nothing"); !errors.Is(err, ErrMissingPage) {
		t.Errorf("View of missing page error = %v, want ErrMissingPage", err)
	}
}

func TestParseCancelled(t *testing.T) {
	c := newClient(newServer(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Parse(ctx, "cat"); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestSearch(t *testing.T) {
	c := newClient(newServer(t))

	got, err := c.Search(context.Background(), "cat")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []string{"cat", "catalogue", "cattle"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Search = %v, want %v", got, want)
	}

	got, err = c.Search(context.Background(), "zzz")
	if err != nil || len(got) != 0 {
		t.Errorf("Search(zzz) = %v, %v; want no titles", got, err)
	}

	if _, err := c.Search(context.Background(), "odd"); err == nil {
		t.Error("expected decode error for non-array response")
	}
}
