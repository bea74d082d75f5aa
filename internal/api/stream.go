package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/kidney-health-score-server/internal/domain"
)

const (
	streamWriteTimeout = 10 * time.Second
	streamSendBuffer   = 16
)

// StreamEvent is the wire format pushed to websocket subscribers whenever a
// reading is scored and stored.
type StreamEvent struct {
	Type     string              `json:"type"`
	RecordID string              `json:"record_id"`
	UserID   string              `json:"user_id"`
	Gfr      domain.GfrEstimate  `json:"gfr"`
	Ksls     domain.KSLSResult   `json:"ksls"`
	Trend    *domain.TrendResult `json:"trend,omitempty"`
	At       time.Time           `json:"at"`
}

// StreamHub fans stored records out to websocket subscribers. It implements
// the service's Notifier interface. Slow subscribers are dropped rather than
// allowed to block the scoring path.
type StreamHub struct {
	log      *logrus.Logger
	upgrader websocket.Upgrader

	mu          sync.Mutex
	subscribers map[*websocket.Conn]chan StreamEvent
}

// NewStreamHub creates a stream hub.
func NewStreamHub(logger *logrus.Logger) *StreamHub {
	return &StreamHub{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from the app origin; same-host only.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subscribers: make(map[*websocket.Conn]chan StreamEvent),
	}
}

// Publish delivers a stored record to all subscribers without blocking.
func (h *StreamHub) Publish(record *domain.MetricsRecord) {
	event := StreamEvent{
		Type:     "reading_scored",
		RecordID: record.ID,
		UserID:   record.UserID,
		Gfr:      record.Gfr,
		Ksls:     record.Ksls,
		Trend:    record.GfrTrend,
		At:       time.Now().UTC(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, send := range h.subscribers {
		select {
		case send <- event:
		default:
			// Subscriber is not keeping up; disconnect it.
			h.log.Warn("Dropping slow stream subscriber")
			close(send)
			delete(h.subscribers, conn)
			conn.Close()
		}
	}
}

// HandleUpgrade upgrades an HTTP request to a websocket subscription.
func (h *StreamHub) HandleUpgrade(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	send := make(chan StreamEvent, streamSendBuffer)

	h.mu.Lock()
	h.subscribers[conn] = send
	h.mu.Unlock()

	h.log.WithField("subscribers", h.SubscriberCount()).Info("Stream subscriber connected")

	go h.writeLoop(conn, send)
	go h.readLoop(conn)
}

// SubscriberCount returns the number of connected subscribers.
func (h *StreamHub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close disconnects all subscribers.
func (h *StreamHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, send := range h.subscribers {
		close(send)
		delete(h.subscribers, conn)
		conn.Close()
	}
}

func (h *StreamHub) writeLoop(conn *websocket.Conn, send chan StreamEvent) {
	for event := range send {
		conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := conn.WriteJSON(event); err != nil {
			h.remove(conn)
			return
		}
	}
}

// readLoop drains client frames so pings are answered, and detects closes.
func (h *StreamHub) readLoop(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.remove(conn)
			return
		}
	}
}

func (h *StreamHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if send, found := h.subscribers[conn]; found {
		close(send)
		delete(h.subscribers, conn)
	}
	conn.Close()
}
