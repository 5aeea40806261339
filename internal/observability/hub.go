package observability

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The event stream is a local debugging surface, allow all origins
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// Event is a conversation lifecycle event pushed to subscribers
type Event struct {
	Type      string `json:"type"`
	TurnID    string `json:"turn_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Timestamp string `json:"timestamp"`
}

// NewEvent creates an event stamped with the current time
func NewEvent(eventType, turnID, detail string) Event {
	return Event{
		Type:      eventType,
		TurnID:    turnID,
		Detail:    detail,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

type subscriber struct {
	id   string
	conn *websocket.Conn

	mu sync.Mutex
}

func (s *subscriber) send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// EventHub broadcasts conversation events to connected WebSocket clients.
// A slow or dead subscriber is dropped rather than allowed to stall the
// conversation loop
type EventHub struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriber

	eventsSent atomic.Uint64
}

// NewEventHub creates a new event hub
func NewEventHub() *EventHub {
	return &EventHub{
		subscribers: make(map[string]*subscriber),
	}
}

// Handler returns the HTTP handler for WebSocket subscriptions
func (h *EventHub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := GetLogger()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("Event stream upgrade failed")
			return
		}

		sub := &subscriber{
			id:   uuid.New().String(),
			conn: conn,
		}

		h.mu.Lock()
		h.subscribers[sub.id] = sub
		count := len(h.subscribers)
		h.mu.Unlock()

		log.Debug().
			Str("subscriber_id", sub.id).
			Int("subscribers", count).
			Msg("Event stream subscriber connected")

		// Read loop exists only to detect disconnects; inbound
		// messages are ignored
		go func() {
			defer h.remove(sub.id)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

// Broadcast pushes an event to all connected subscribers
func (h *EventHub) Broadcast(event Event) {
	log := GetLogger()

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode event")
		return
	}

	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.subscribers))
	for _, s := range h.subscribers {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.send(data); err != nil {
			log.Debug().
				Str("subscriber_id", sub.id).
				Err(err).
				Msg("Dropping event stream subscriber")
			h.remove(sub.id)
			continue
		}
		h.eventsSent.Add(1)
	}
}

// SubscriberCount returns the number of connected subscribers
func (h *EventHub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// EventsSent returns the number of events successfully delivered
func (h *EventHub) EventsSent() uint64 {
	return h.eventsSent.Load()
}

func (h *EventHub) remove(id string) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	h.mu.Unlock()

	if ok {
		sub.conn.Close()
	}
}
