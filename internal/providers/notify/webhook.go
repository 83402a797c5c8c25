// Package notify delivers organizer callbacks to an external HTTP
// endpoint. Shell processes that cannot hold a websocket open register
// a webhook instead; each task event becomes one JSON POST.
package notify

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/glasskit/windowd/internal/domain/wm"
	"github.com/glasskit/windowd/internal/infrastructure/config"
	"github.com/glasskit/windowd/internal/infrastructure/logging"
	"github.com/glasskit/windowd/internal/shared/id"
)

// Event is the wire form of one organizer callback.
type Event struct {
	ID   id.EventID  `json:"id"`
	Type string      `json:"type"`
	Time time.Time   `json:"time"`
	Task wm.TaskInfo `json:"task"`
}

const (
	EventAppeared = "task-appeared"
	EventVanished = "task-vanished"
	EventChanged  = "task-info-changed"
)

// Webhook implements wm.Organizer by POSTing events to a configured
// URL. Delivery is asynchronous; the window manager loop only ever pays
// for a channel send.
type Webhook struct {
	url    string
	client *retryablehttp.Client
	logger *logging.Logger

	queue chan Event
	done  chan struct{}
	once  sync.Once
}

const queueDepth = 256

// New builds a webhook organizer from config. Callers should check
// cfg.WebhookURL before constructing one; an empty URL has no useful
// target.
func New(cfg config.NotifyConfig, logger *logging.Logger) *Webhook {
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.RetryMax
	client.Logger = nil
	client.HTTPClient.Timeout = 10 * time.Second

	w := &Webhook{
		url:    cfg.WebhookURL,
		client: client,
		logger: logger.Named("notify"),
		queue:  make(chan Event, queueDepth),
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Webhook) OnTaskAppeared(info wm.TaskInfo) { w.enqueue(EventAppeared, info) }

func (w *Webhook) OnTaskVanished(info wm.TaskInfo) { w.enqueue(EventVanished, info) }

func (w *Webhook) OnTaskInfoChanged(info wm.TaskInfo) { w.enqueue(EventChanged, info) }

// Close stops the delivery worker after draining queued events.
func (w *Webhook) Close() {
	w.once.Do(func() {
		close(w.queue)
		<-w.done
	})
}

func (w *Webhook) enqueue(eventType string, info wm.TaskInfo) {
	ev := Event{
		ID:   id.NewEventID(),
		Type: eventType,
		Time: time.Now().UTC(),
		Task: info,
	}
	select {
	case w.queue <- ev:
	default:
		w.logger.Warn("event queue full, dropping",
			zap.String("type", eventType),
			zap.Int("task", info.ID),
		)
	}
}

func (w *Webhook) run() {
	defer close(w.done)
	for ev := range w.queue {
		w.deliver(ev)
	}
}

func (w *Webhook) deliver(ev Event) {
	body, err := json.Marshal(ev)
	if err != nil {
		w.logger.Error("event encode failed", zap.Error(err))
		return
	}

	req, err := retryablehttp.NewRequest("POST", w.url, bytes.NewReader(body))
	if err != nil {
		w.logger.Error("webhook request build failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Warn("webhook delivery failed",
			zap.String("event", ev.ID.String()),
			zap.String("type", ev.Type),
			zap.Error(err),
		)
		return
	}
	resp.Body.Close()
	w.logger.Debug("event delivered",
		zap.String("event", ev.ID.String()),
		zap.String("type", ev.Type),
		zap.Int("status", resp.StatusCode),
	)
}
