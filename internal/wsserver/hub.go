package wsserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeDeadline bounds a single write. A client that stalls longer is dropped.
	writeDeadline = 2 * time.Second
	// readDeadline allows ~3 missed pings before the connection is considered dead.
	readDeadline = 90 * time.Second
	pingInterval = 30 * time.Second
	// Clients send no application messages; keep the read limit small.
	maxReadMessageSize = 4 * 1024
	// sendQueueSize is the per-client backlog. A client that falls this far
	// behind is disconnected instead of blocking the broadcaster.
	sendQueueSize   = 64
	shutdownTimeout = 5 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	// The server binds to 127.0.0.1 only and browser-source overlays connect
	// from arbitrary origins.
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 4 * 1024,
}

// HubOptions configures the WebSocket server.
type HubOptions struct {
	// Addr is the listen address. Use "127.0.0.1:0" for OS-assigned port.
	Addr string
}

// Hub serves any number of WebSocket clients and broadcasts frames to all of
// them. Each client has its own writer goroutine fed by a bounded queue, so
// Broadcast never blocks on a slow client.
type Hub struct {
	opts HubOptions

	mu      sync.RWMutex
	clients map[*client]struct{}
	stopped bool

	listener net.Listener
	server   *http.Server
	url      string

	wg        sync.WaitGroup
	closeOnce sync.Once
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// NewHub creates a Hub. The hub is not started until Start is called.
func NewHub(opts HubOptions) *Hub {
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:0"
	}
	return &Hub{
		opts:    opts,
		clients: make(map[*client]struct{}),
	}
}

// Start listens on the configured address and serves /ws. Start must be
// called once; the server is stopped with Stop.
func (h *Hub) Start(ctx context.Context) error {
	if h.server != nil {
		return errors.New("wsserver: already started")
	}

	ln, err := net.Listen("tcp", h.opts.Addr)
	if err != nil {
		return fmt.Errorf("wsserver: listen: %w", err)
	}
	h.listener = ln

	port := ln.Addr().(*net.TCPAddr).Port
	h.url = fmt.Sprintf("ws://127.0.0.1:%d/ws", port)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWS)

	h.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if serveErr := h.server.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("[WS] server error", "error", serveErr)
		}
	}()

	slog.Info("[WS] server started", "url", h.url)
	return nil
}

// Stop closes every client and shuts the HTTP server down. Idempotent.
func (h *Hub) Stop() error {
	var stopErr error
	h.closeOnce.Do(func() {
		h.mu.Lock()
		h.stopped = true
		clients := make([]*client, 0, len(h.clients))
		for c := range h.clients {
			clients = append(clients, c)
		}
		h.clients = make(map[*client]struct{})
		h.mu.Unlock()

		for _, c := range clients {
			c.close()
		}

		if h.server != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := h.server.Shutdown(shutdownCtx); err != nil {
				stopErr = fmt.Errorf("wsserver: shutdown: %w", err)
			}
		}
		h.wg.Wait()
		slog.Info("[WS] server stopped")
	})
	return stopErr
}

// URL returns the WebSocket URL (e.g. "ws://127.0.0.1:54321/ws"), or ""
// before Start.
func (h *Hub) URL() string {
	return h.url
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast encodes payload as an Envelope and queues it for every client.
// A client whose queue is full is disconnected.
func (h *Hub) Broadcast(msgType string, payload any) error {
	frame, err := EncodeEnvelope(msgType, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		slog.Warn("[WS] client send queue full, disconnecting", "remoteAddr", c.conn.RemoteAddr())
		h.remove(c)
	}
	return nil
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("[WS] upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(maxReadMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		slog.Warn("[WS] SetReadDeadline failed on new connection", "error", err)
		_ = conn.Close()
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	c := &client{
		conn: conn,
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.wg.Add(1)
	h.mu.Unlock()

	slog.Info("[WS] client connected", "remoteAddr", conn.RemoteAddr())

	go func() {
		defer h.wg.Done()
		h.writePump(c)
	}()
	h.readPump(c)
}

// readPump discards client messages and detects disconnects.
func (h *Hub) readPump(c *client) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("[DEBUG-PANIC] wsserver readPump recovered",
				"panic", rec,
				"stack", string(debug.Stack()),
			)
		}
		h.remove(c)
		slog.Info("[WS] client disconnected", "remoteAddr", c.conn.RemoteAddr())
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("[WS] read error", "error", err)
			}
			return
		}
	}
}

// writePump owns every write on the connection, as gorilla/websocket
// supports one concurrent writer.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		if rec := recover(); rec != nil {
			slog.Error("[DEBUG-PANIC] wsserver writePump recovered",
				"panic", rec,
				"stack", string(debug.Stack()),
			)
		}
		h.remove(c)
		if err := c.conn.Close(); err != nil {
			slog.Debug("[WS] connection close", "error", err)
		}
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"))
			return
		case frame := <-c.send:
			if !h.write(c, websocket.TextMessage, frame) {
				return
			}
		case <-ticker.C:
			if !h.write(c, websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (h *Hub) write(c *client, messageType int, data []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
		slog.Warn("[WS] SetWriteDeadline failed, closing connection", "error", err)
		return false
	}
	if err := c.conn.WriteMessage(messageType, data); err != nil {
		slog.Warn("[WS] write failed, closing connection", "remoteAddr", c.conn.RemoteAddr(), "error", err)
		return false
	}
	return true
}
