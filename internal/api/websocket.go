package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"survivor/internal/game"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	wsWriteTimeout = 2 * time.Second
	wsReadLimit    = 512
)

// Wire formats a client can ask for with ?format=
const (
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// SnapshotSource is what the broadcast loop reads from.
type SnapshotSource interface {
	Snapshot() game.GameSnapshot
}

// wsMessage is the envelope every pushed frame uses.
type wsMessage struct {
	Event string      `json:"event" msgpack:"event"`
	Data  interface{} `json:"data" msgpack:"data"`
}

// wsFrame carries one message pre-encoded in both wire formats.
type wsFrame struct {
	text   []byte
	binary []byte
}

type wsClient struct {
	conn   *websocket.Conn
	ip     string
	binary bool // msgpack frames instead of JSON text
}

// WebSocketHub manages all WebSocket connections with DoS protection
type WebSocketHub struct {
	clients    map[*websocket.Conn]*wsClient
	broadcast  chan wsFrame
	register   chan *wsClient
	unregister chan *websocket.Conn
	mu         sync.RWMutex

	upgrader  websocket.Upgrader
	wsLimiter *WebSocketRateLimiter

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewWebSocketHub creates a new hub with connection limiting
func NewWebSocketHub(origins *OriginPolicy) *WebSocketHub {
	if origins == nil {
		origins = NewOriginPolicy(nil)
	}
	return &WebSocketHub{
		clients:    make(map[*websocket.Conn]*wsClient),
		broadcast:  make(chan wsFrame, 64),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     origins.CheckOrigin,
		},
		wsLimiter: NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
		stopChan:  make(chan struct{}),
	}
}

// Run owns every connection write. It returns after Stop.
func (h *WebSocketHub) Run() {
	for {
		select {
		case <-h.stopChan:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client connected from %s (%d total)", client.ip, count)
			UpdateWSConnections(count)

		case conn := <-h.unregister:
			if h.remove(conn) {
				count := h.ClientCount()
				log.Printf("📱 Client disconnected (%d remaining)", count)
				UpdateWSConnections(count)
			}

		case frame := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*wsClient, 0, len(h.clients))
			for _, c := range h.clients {
				clients = append(clients, c)
			}
			h.mu.RUnlock()

			var failed []*websocket.Conn
			for _, c := range clients {
				msgType, payload := websocket.TextMessage, frame.text
				if c.binary {
					msgType, payload = websocket.BinaryMessage, frame.binary
				}
				c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := c.conn.WriteMessage(msgType, payload); err != nil {
					failed = append(failed, c.conn)
				}
			}
			for _, conn := range failed {
				h.remove(conn)
			}
			if len(failed) > 0 {
				UpdateWSConnections(h.ClientCount())
			}
			IncrementWSMessages()
		}
	}
}

// remove drops a connection and frees its IP slot. It reports whether conn was registered.
func (h *WebSocketHub) remove(conn *websocket.Conn) bool {
	h.mu.Lock()
	client, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
	}
	h.mu.Unlock()

	if ok {
		h.wsLimiter.Release(client.ip)
		conn.Close()
	}
	return ok
}

func (h *WebSocketHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, client := range h.clients {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
		h.wsLimiter.Release(client.ip)
		delete(h.clients, conn)
	}
	UpdateWSConnections(0)
}

// Stop closes every connection and ends Run and the broadcast loop.
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
	})
}

// Broadcast sends a message to all connected clients
func (h *WebSocketHub) Broadcast(event string, data interface{}) error {
	msg := wsMessage{Event: event, Data: data}

	text, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	binary, err := msgpack.Marshal(&msg)
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- wsFrame{text: text, binary: binary}:
	default:
		// Channel full, skip (backpressure)
	}
	return nil
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartBroadcastLoop pushes the latest snapshot rate times per second.
// Unchanged snapshots are not resent.
func (h *WebSocketHub) StartBroadcastLoop(src SnapshotSource, rate int) {
	if rate <= 0 {
		rate = 10
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))

	go func() {
		defer ticker.Stop()
		var lastSeq uint64
		for {
			select {
			case <-h.stopChan:
				return
			case <-ticker.C:
			}

			if h.ClientCount() == 0 {
				continue
			}

			snap := src.Snapshot()
			if snap.Sequence == lastSeq {
				continue
			}
			lastSeq = snap.Sequence

			if err := h.Broadcast("match:state", snap); err != nil {
				log.Printf("⚠️ Snapshot encode failed: %v", err)
			}
		}
	}()
}

// HandleWebSocket handles incoming WebSocket connections with DoS protection
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	format := r.URL.Query().Get("format")
	if format != "" && format != FormatJSON && format != FormatMsgpack {
		RecordConnectionRejected("invalid")
		writeError(w, "format must be json or msgpack", http.StatusBadRequest)
		return
	}

	if total := h.ClientCount(); total >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", total)
		RecordConnectionRejected("ws_total_limit")
		writeError(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	if !h.wsLimiter.Allow(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		writeError(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.wsLimiter.Release(ip)
		return
	}
	conn.SetReadLimit(wsReadLimit)

	client := &wsClient{conn: conn, ip: ip, binary: format == FormatMsgpack}
	select {
	case h.register <- client:
	case <-h.stopChan:
		conn.Close()
		h.wsLimiter.Release(ip)
		return
	}

	// Clients only receive; reading keeps control frames flowing and detects close.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		select {
		case h.unregister <- conn:
		case <-h.stopChan:
		}
	}()
}
