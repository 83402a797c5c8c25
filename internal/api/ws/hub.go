// Package ws streams organizer events to websocket subscribers.
//
// The hub is itself a wm.Organizer: the window manager fans callbacks
// into it and every connected client receives the resulting JSON
// events. Clients can also request a full tree snapshot over the same
// connection to resynchronize after a dropped event.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/glasskit/windowd/internal/domain/wm"
	"github.com/glasskit/windowd/internal/infrastructure/logging"
	"github.com/glasskit/windowd/internal/infrastructure/monitoring"
	"github.com/glasskit/windowd/internal/shared/id"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

// Event is one organizer callback on the wire.
type Event struct {
	ID        id.EventID  `json:"id"`
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Task      wm.TaskInfo `json:"task"`
}

const (
	EventTaskAppeared = "task-appeared"
	EventTaskVanished = "task-vanished"
	EventTaskChanged  = "task-info-changed"
)

// sendBuffer is the per-subscriber backlog; a subscriber that falls
// this far behind loses events and must request a snapshot to resync.
const sendBuffer = 64

// subscriber owns the single write path for one connection. All
// outbound frames funnel through out so only the write pump ever
// touches the conn.
type subscriber struct {
	out chan outbound
}

type outbound struct {
	event   *Event
	payload gin.H
}

func (s *subscriber) queueEvent(ev Event) bool {
	select {
	case s.out <- outbound{event: &ev}:
		return true
	default:
		return false
	}
}

func (s *subscriber) queue(payload gin.H) bool {
	select {
	case s.out <- outbound{payload: payload}:
		return true
	default:
		return false
	}
}

// Hub manages WebSocket connections and event fan-out.
type Hub struct {
	manager *wm.Manager
	logger  *logging.Logger
	metrics *monitoring.Metrics

	mu   sync.RWMutex
	subs map[string]*subscriber
}

// NewHub creates a hub. Bind attaches the window manager afterwards;
// the hub is handed to the manager as an organizer at construction, so
// the two cannot reference each other up front.
func NewHub(logger *logging.Logger, metrics *monitoring.Metrics) *Hub {
	return &Hub{
		logger:  logger.Named("ws"),
		metrics: metrics,
		subs:    make(map[string]*subscriber),
	}
}

// Bind attaches the manager used to answer snapshot requests. Must be
// called before the server starts accepting connections.
func (h *Hub) Bind(manager *wm.Manager) {
	h.manager = manager
}

// OnTaskAppeared implements wm.Organizer.
func (h *Hub) OnTaskAppeared(info wm.TaskInfo) { h.broadcast(EventTaskAppeared, info) }

// OnTaskVanished implements wm.Organizer.
func (h *Hub) OnTaskVanished(info wm.TaskInfo) { h.broadcast(EventTaskVanished, info) }

// OnTaskInfoChanged implements wm.Organizer.
func (h *Hub) OnTaskInfoChanged(info wm.TaskInfo) { h.broadcast(EventTaskChanged, info) }

func (h *Hub) broadcast(eventType string, info wm.TaskInfo) {
	ev := Event{
		ID:        id.NewEventID(),
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		Task:      info,
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID, sub := range h.subs {
		if !sub.queueEvent(ev) {
			h.logger.Warn("subscriber lagging, dropping event",
				zap.String("conn", connID),
				zap.String("type", eventType),
			)
		}
	}
}

// SubscriberCount reports how many connections are attached.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) register(sub *subscriber) string {
	connID := uuid.NewString()
	h.mu.Lock()
	h.subs[connID] = sub
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.IncWSConnections()
	}
	return connID
}

func (h *Hub) unregister(connID string) {
	h.mu.Lock()
	delete(h.subs, connID)
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.DecWSConnections()
	}
}

// HandleConnection handles WebSocket upgrade and messages.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sub := &subscriber{out: make(chan outbound, sendBuffer)}
	connID := h.register(sub)
	defer h.unregister(connID)

	done := make(chan struct{})
	go h.writePump(conn, sub, done)
	defer close(done)

	h.logger.Info("subscriber connected", zap.String("conn", connID))
	sub.queue(gin.H{
		"type":    "system",
		"conn_id": connID,
		"message": "Connected to window event stream",
	})

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			h.logger.Debug("subscriber read ended",
				zap.String("conn", connID),
				zap.Error(err),
			)
			return
		}
		if h.metrics != nil {
			h.metrics.RecordWSMessage("in", msg.Type)
		}

		switch msg.Type {
		case "snapshot":
			tree, err := h.manager.Snapshot()
			if err != nil {
				sub.queue(gin.H{
					"type":      "error",
					"message":   err.Error(),
					"timestamp": time.Now().Unix(),
				})
				continue
			}
			sub.queue(gin.H{
				"type":      "snapshot",
				"tree":      tree,
				"timestamp": time.Now().Unix(),
			})
		case "ping":
			sub.queue(gin.H{"type": "pong"})
		default:
			sub.queue(gin.H{
				"type":      "error",
				"message":   "unknown message type",
				"timestamp": time.Now().Unix(),
			})
		}
	}
}

type clientMessage struct {
	Type string `json:"type"`
}

func (h *Hub) writePump(conn *websocket.Conn, sub *subscriber, done <-chan struct{}) {
	for {
		select {
		case out := <-sub.out:
			var err error
			if out.event != nil {
				err = conn.WriteJSON(out.event)
				if err == nil && h.metrics != nil {
					h.metrics.RecordWSMessage("out", out.event.Type)
				}
			} else {
				err = conn.WriteJSON(out.payload)
			}
			if err != nil {
				h.logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-done:
			return
		}
	}
}
