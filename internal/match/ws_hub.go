// WebSocket hub for live scoreboard updates.

package match

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/crease/match-engine/internal/metrics"
	"github.com/crease/match-engine/internal/model"
	"github.com/crease/match-engine/internal/stats"
)

// EventStateChanged is the only event type the hub emits.
const EventStateChanged = "state_changed"

// WSMessage is a JSON message sent to WebSocket clients.
type WSMessage struct {
	Type    string             `json:"type"`
	MatchID string             `json:"match_id"`
	Command model.CommandKind  `json:"command"`
	Status  model.MatchStatus  `json:"status"`
	Score   int                `json:"score"`
	Wickets int                `json:"wickets"`
	Overs   string             `json:"overs"`
	State   *model.MatchState  `json:"state,omitempty"`
	Result  *model.MatchResult `json:"result,omitempty"`
}

// newStateMessage summarises next for subscribers.
func newStateMessage(next *model.MatchState, cmd model.CommandKind) WSMessage {
	return WSMessage{
		Type:    EventStateChanged,
		MatchID: next.MatchID,
		Command: cmd,
		Status:  next.Status,
		Score:   next.BattingTeam.Score,
		Wickets: next.BattingTeam.Wickets,
		Overs:   stats.OversNotation(next.BattingTeam.LegalBalls()),
		State:   next,
		Result:  next.Result,
	}
}

type outbound struct {
	matchID string
	data    []byte
}

// WSHub manages WebSocket connections and fans state changes out to them.
// A client connecting with ?match=<id> only receives that match's events.
type WSHub struct {
	clients    map[*websocket.Conn]string
	broadcast  chan outbound
	register   chan subscriber
	unregister chan *websocket.Conn
	mu         sync.RWMutex
}

type subscriber struct {
	conn    *websocket.Conn
	matchID string
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*websocket.Conn]string),
		broadcast:  make(chan outbound, 256),
		register:   make(chan subscriber),
		unregister: make(chan *websocket.Conn),
	}
}

// Run starts the hub's main event loop. Must be called in a goroutine.
func (h *WSHub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			h.clients[sub.conn] = sub.matchID
			total := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketClients.Inc()
			slog.Info("ws client connected", "match", sub.matchID, "total", total)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
				metrics.WebSocketClients.Dec()
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for conn, filter := range h.clients {
				if filter != "" && filter != msg.matchID {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, msg.data); err != nil {
					conn.Close()
					delete(h.clients, conn)
					metrics.WebSocketClients.Dec()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues msg for every interested client.
func (h *WSHub) Broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("ws encode failed", "match", msg.MatchID, "err", err)
		return
	}
	select {
	case h.broadcast <- outbound{matchID: msg.MatchID, data: data}:
	default:
		// Drop if buffer full so scoring never waits on slow clients.
	}
}

// Notify is a scoring.Listener that broadcasts every state change.
func (h *WSHub) Notify(next *model.MatchState, cmd model.Command) {
	h.Broadcast(newStateMessage(next, cmd.Kind))
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true // Scoreboards are embedded on third-party pages.
	},
}

// HandleWS handles WebSocket upgrade requests at GET /api/v1/ws.
func (h *WSHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "err", err)
		return
	}

	h.register <- subscriber{conn: conn, matchID: r.URL.Query().Get("match")}

	// Read pump: keep connection alive and detect disconnects.
	go func() {
		defer func() { h.unregister <- conn }()
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()

	// Ping ticker to keep connection alive through proxies.
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			h.mu.RLock()
			_, ok := h.clients[conn]
			h.mu.RUnlock()
			if !ok {
				return
			}
			// WriteControl may run concurrently with the hub's writes.
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}()
}
