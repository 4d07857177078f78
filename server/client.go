package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"lookup/page"
	"lookup/reader"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Message is the JSON shape of everything sent over the socket in
// either direction.
type Message struct {
	Type      string   `json:"type"` // show, loading, filters | lookup, follow, back, language
	Page      string   `json:"page,omitempty"`
	HTML      string   `json:"html,omitempty"`
	Loading   bool     `json:"loading"`
	Languages []string `json:"languages,omitempty"`
	Ignored   []string `json:"ignored,omitempty"`
	Text      string   `json:"text,omitempty"`
	Link      int      `json:"link,omitempty"`
}

// Client is one websocket connection with its own panel. It is the
// panel's Display.
type Client struct {
	id       uuid.UUID
	ctx      context.Context
	conn     *websocket.Conn
	send     chan []byte
	panel    *reader.Panel
	log      *slog.Logger
	onLookup func()

	mu      sync.Mutex
	current *page.Fragment
}

func newClient(ctx context.Context, conn *websocket.Conn, log *slog.Logger) *Client {
	id := uuid.New()
	return &Client{
		id:   id,
		ctx:  ctx,
		conn: conn,
		send: make(chan []byte, 64),
		log:  log.With("client", id.String()),
	}
}

// Show sends the fragment markup. Intercepted links carry their index in
// a data-link attribute; the page answers clicks with a follow message.
func (c *Client) Show(f *page.Fragment) {
	body, err := f.HTML()
	if err != nil {
		c.log.Error("rendering fragment", "page", f.Page, "error", err)
		return
	}
	c.mu.Lock()
	c.current = f
	c.mu.Unlock()
	c.push(Message{Type: "show", Page: f.Page, HTML: body})
}

func (c *Client) SetLoading(loading bool) {
	c.push(Message{Type: "loading", Loading: loading})
}

func (c *Client) SetFilters(languages, ignored []string) {
	c.push(Message{Type: "filters", Languages: languages, Ignored: ignored})
}

func (c *Client) push(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Error("failed to marshal message", "error", err)
		return
	}
	select {
	case c.send <- data:
	case <-c.ctx.Done():
	}
}

func (c *Client) handle(msg Message) {
	switch msg.Type {
	case "lookup":
		if msg.Text == "" {
			return
		}
		if c.onLookup != nil {
			c.onLookup()
		}
		c.panel.Lookup(msg.Text)
	case "follow":
		c.mu.Lock()
		f := c.current
		c.mu.Unlock()
		if f == nil || !f.Follow(msg.Link) {
			c.log.Warn("follow of unknown link", "link", msg.Link)
		}
	case "back":
		c.panel.Back()
	case "language":
		c.panel.SelectLanguage(msg.Text)
	default:
		c.log.Warn("unknown message", "type", msg.Type)
	}
}

// readPump reads commands until the connection closes.
func (c *Client) readPump() {
	defer c.conn.Close()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Error("websocket unexpected close", "error", err)
			}
			return
		}
		c.handle(msg)
	}
}

// writePump writes queued messages and keeps the connection alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
