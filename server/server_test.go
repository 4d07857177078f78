package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"lookup/fetcher"
	"lookup/page"
	"lookup/settings"
)

const catPage = `<div class="mw-content-ltr mw-parser-output">
<h2><span class="mw-headline" id="English">English</span></h2>
<h3><span class="mw-headline" id="Noun">Noun</span></h3>
<ol><li>A small feline; compare <a href="/wiki/chat#French" title="chat">chat</a>.</li><li>A person.</li></ol>
<h2><span class="mw-headline" id="French">French</span></h2>
<h3><span class="mw-headline" id="Noun_2">Noun</span></h3>
<ol><li>a dude</li><li>a guy</li></ol>
</div>`

const chatPage = `<div class="mw-content-ltr mw-parser-output">
<h2><span class="mw-headline" id="English">English</span></h2>
<ol><li>An informal conversation.</li><li>A bird.</li></ol>
<h2><span class="mw-headline" id="French">French</span></h2>
<ol><li>cat</li><li>tomcat</li></ol>
</div>`

type fakeFetcher map[string]string

func (f fakeFetcher) Parse(_ context.Context, name string) (*fetcher.Page, error) {
	if text, ok := f[name]; ok {
		return &fetcher.Page{Title: name, HTML: text}, nil
	}
	return nil, fmt.Errorf("%s: %w", name, fetcher.ErrMissingPage)
}

func (f fakeFetcher) View(ctx context.Context, name string) (*fetcher.Page, error) {
	return f.Parse(ctx, name)
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := New(fakeFetcher{"cat": catPage, "chat": chatPage}, page.NewFormatter("", quiet), settings.NewMemoryStore(), Options{Logger: quiet})
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestLookupEndpoint(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name     string
		query    string
		status   int
		contains []string
		excludes []string
	}{
		{"selected language", "?q=cat", http.StatusOK, []string{`data-language="English"`, `data-link="0"`}, []string{`data-language="French"`}},
		{"all languages", "?q=cat&lang=", http.StatusOK, []string{`data-language="English"`, `data-language="French"`}, nil},
		{"explicit language", "?q=chat&lang=French", http.StatusOK, []string{`data-language="French"`}, []string{`data-language="English"`}},
		{"lower-case retry", "?q=Cat", http.StatusOK, []string{"<h1>cat"}, nil},
		{"missing word", "", http.StatusBadRequest, []string{"missing q"}, nil},
		{"unknown word", "?q=zzz", http.StatusNotFound, []string{"no entry"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := get(t, ts.URL+"/api/lookup"+tt.query)
			if status != tt.status {
				t.Fatalf("status = %d, want %d: %s", status, tt.status, body)
			}
			for _, s := range tt.contains {
				if !strings.Contains(body, s) {
					t.Errorf("body missing %q:\n%s", s, body)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(body, s) {
					t.Errorf("body should not contain %q", s)
				}
			}
		})
	}
}

func TestIndex(t *testing.T) {
	ts := newTestServer(t)
	status, body := get(t, ts.URL+"/")
	if status != http.StatusOK || !strings.Contains(body, `new WebSocket`) {
		t.Errorf("index: status %d", status)
	}
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func expect(t *testing.T, conn *websocket.Conn, typ string) Message {
	t.Helper()
	msg := read(t, conn)
	if msg.Type != typ {
		t.Fatalf("got %q message, want %q: %+v", msg.Type, typ, msg)
	}
	return msg
}

func TestWebSocketPanel(t *testing.T) {
	ts := newTestServer(t)
	conn := dial(t, ts)

	filters := expect(t, conn, "filters")
	if len(filters.Languages) != 1 || filters.Languages[0] != "English" {
		t.Errorf("languages = %v", filters.Languages)
	}
	if len(filters.Ignored) == 0 {
		t.Error("expected default ignored sections")
	}

	_, body := get(t, ts.URL+"/api/status")
	var status map[string]any
	if err := json.Unmarshal([]byte(body), &status); err != nil {
		t.Fatalf("status: %v", err)
	}
	if status["clients"] != float64(1) {
		t.Errorf("clients = %v, want 1", status["clients"])
	}

	conn.WriteJSON(Message{Type: "lookup", Text: "cat"})
	if !expect(t, conn, "loading").Loading {
		t.Error("expected loading on")
	}
	show := expect(t, conn, "show")
	if show.Page != "cat" || !strings.Contains(show.HTML, `data-link="0"`) {
		t.Errorf("show = %+v", show)
	}
	if expect(t, conn, "loading").Loading {
		t.Error("expected loading off")
	}

	conn.WriteJSON(Message{Type: "follow", Link: 0})
	expect(t, conn, "loading")
	show = expect(t, conn, "show")
	if show.Page != "chat" || !strings.Contains(show.HTML, `data-language="French"`) || strings.Contains(show.HTML, `data-language="English"`) {
		t.Errorf("followed show = %+v", show)
	}
	expect(t, conn, "loading")

	conn.WriteJSON(Message{Type: "back"})
	if show = expect(t, conn, "show"); show.Page != "cat" {
		t.Errorf("back showed %q, want cat", show.Page)
	}
}
