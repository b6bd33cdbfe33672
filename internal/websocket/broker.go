// Package websocket fans engine market data out to browser clients. Payloads
// arrive pre-serialized from the engine and are passed through untouched.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait           = 10 * time.Second
	pongWait            = 60 * time.Second
	pingPeriod          = (pongWait * 9) / 10
	maxMessageSize      = 512 * 1024 // 512 KB
	defaultSendBuf      = 256
	defaultPublishBuf   = 4096
	maxConsecutiveDrops = 50
)

type publishMsg struct {
	Topic string
	Data  []byte
}

type subscription struct {
	client *Client
	topic  string
}

// Hub manages clients, subscriptions and publishes. Topics are the engine's
// market data channels, e.g. trade@SOL_USDC and depth@SOL_USDC.
type Hub struct {
	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	unsubscribe chan subscription
	publish     chan publishMsg

	clients map[*Client]struct{}
	topics  map[string]map[*Client]struct{}

	sendBuf int

	// simple metrics
	publishDrops uint64

	log *zap.Logger
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	subscribed map[string]struct{}

	// consecutive drops counter: if it grows too large we evict the client
	drops int
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan subscription),
		publish:     make(chan publishMsg, defaultPublishBuf),
		clients:     make(map[*Client]struct{}),
		topics:      make(map[string]map[*Client]struct{}),
		sendBuf:     defaultSendBuf,
		log:         log.Named("ws-hub"),
	}
}

// Run runs the hub event loop. Call as: go hub.Run(ctx).
// The hub stops when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("ws hub started")
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.dropClient(c)
			}

		case sub := <-h.subscribe:
			subs := h.topics[sub.topic]
			if subs == nil {
				subs = make(map[*Client]struct{})
				h.topics[sub.topic] = subs
			}
			subs[sub.client] = struct{}{}
			sub.client.subscribed[sub.topic] = struct{}{}

		case sub := <-h.unsubscribe:
			if subs := h.topics[sub.topic]; subs != nil {
				delete(subs, sub.client)
				if len(subs) == 0 {
					delete(h.topics, sub.topic)
				}
			}
			delete(sub.client.subscribed, sub.topic)

		case p := <-h.publish:
			for c := range h.topics[p.Topic] {
				select {
				case c.send <- p.Data:
				default:
					atomic.AddUint64(&h.publishDrops, 1)
					c.drops++
					if c.drops > maxConsecutiveDrops {
						h.log.Warn("evicting slow client", zap.Int("drops", c.drops))
						h.dropClient(c)
						_ = c.conn.Close()
					}
				}
			}

		case <-ctx.Done():
			h.log.Info("ws hub shutting down")
			for c := range h.clients {
				close(c.send)
				_ = c.conn.Close()
				delete(h.clients, c)
			}
			return
		}
	}
}

// dropClient removes a client from the registry and every topic. Only called
// from the Run loop.
func (h *Hub) dropClient(c *Client) {
	delete(h.clients, c)
	for t := range c.subscribed {
		if subs := h.topics[t]; subs != nil {
			delete(subs, c)
			if len(subs) == 0 {
				delete(h.topics, t)
			}
		}
	}
	close(c.send)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// In prod, check origin and require auth.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and registers a client.
// Initial topics can be passed via ?topics=trade@SOL_USDC,depth@SOL_USDC
func ServeWS(h *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}

	client := &Client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, h.sendBuf),
		subscribed: make(map[string]struct{}),
	}

	if s := r.URL.Query().Get("topics"); s != "" {
		for _, topic := range strings.Split(s, ",") {
			topic = strings.TrimSpace(topic)
			if topic == "" {
				continue
			}
			client.subscribed[topic] = struct{}{}
		}
	}

	// register then register subscriptions
	h.register <- client
	for topic := range client.subscribed {
		h.subscribe <- subscription{client: client, topic: topic}
	}

	go client.writePump()
	go client.readPump()
}

// readPump reads control/command messages from the client
// and turns them into subscribe/unsubscribe requests.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			) {
				c.hub.log.Warn("read error", zap.Error(err))
			}
			return
		}

		// any incoming activity -> reset drops counter
		c.drops = 0

		var cmd struct {
			Type  string `json:"type"`  // "subscribe" | "unsubscribe"
			Topic string `json:"topic"` // e.g. "trade@SOL_USDC"
		}
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.hub.log.Warn("invalid client msg", zap.Error(err))
			continue
		}

		switch cmd.Type {
		case "subscribe":
			if cmd.Topic != "" {
				c.hub.subscribe <- subscription{client: c, topic: cmd.Topic}
			}
		case "unsubscribe":
			if cmd.Topic != "" {
				c.hub.unsubscribe <- subscription{client: c, topic: cmd.Topic}
			}
		default:
			// unknown: ignore or extend protocol
		}
	}
}

// writePump serializes all writes to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				)
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			if _, err := w.Write(message); err != nil {
				_ = w.Close()
				return
			}

			// batch queued messages into same frame
			n := len(c.send)
			for i := 0; i < n; i++ {
				if msg := <-c.send; msg != nil {
					if _, err := w.Write([]byte("\n")); err != nil {
						break
					}
					if _, err := w.Write(msg); err != nil {
						break
					}
				}
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// PublishRaw fans a pre-serialized payload out to every subscriber of topic.
// Non-blocking: if the hub publish buffer is full, the payload is dropped.
func (h *Hub) PublishRaw(topic string, data []byte) {
	nextSeq(topic)
	select {
	case h.publish <- publishMsg{Topic: topic, Data: data}:
	default:
		// avoid blocking producers; track drops
		atomic.AddUint64(&h.publishDrops, 1)
		h.log.Warn("publish channel full, dropping payload", zap.String("topic", topic))
	}
}

// Stats returns simple metrics (clients count and publish drops).
func (h *Hub) Stats() (clients int, drops uint64) {
	clients = len(h.clients)
	drops = atomic.LoadUint64(&h.publishDrops)
	return
}
