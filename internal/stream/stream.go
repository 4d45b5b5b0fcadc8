// AngelaMos | 2026
// stream.go

// Package stream writes live document updates to clients as server-sent
// events.
package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	EventSnapshot = "snapshot"
	EventReady    = "ready"
	EventError    = "error"
)

var ErrStreamingUnsupported = errors.New("streaming unsupported")

// HeartbeatInterval keeps idle connections open through proxies.
var HeartbeatInterval = 15 * time.Second

type Event struct {
	Name string
	Data any
}

// Queue buffers events for one client. When the client falls behind the
// oldest queued event is dropped, so the newest snapshot always arrives.
type Queue struct {
	ch chan Event
}

func NewQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{ch: make(chan Event, size)}
}

func (q *Queue) Send(ev Event) {
	for {
		select {
		case q.ch <- ev:
			return
		default:
		}
		select {
		case <-q.ch:
		default:
		}
	}
}

func (q *Queue) Events() <-chan Event {
	return q.ch
}

func write(w http.ResponseWriter, ev Event) error {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Name, err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, payload); err != nil {
		return fmt.Errorf("write %s event: %w", ev.Name, err)
	}
	return nil
}

// Serve writes events until the request context ends.
func Serve(w http.ResponseWriter, r *http.Request, events <-chan Event) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return ErrStreamingUnsupported
	}

	// The server write timeout would otherwise cut long-lived streams.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprint(w, "retry: 3000\n\n"); err != nil {
		return err
	}
	flusher.Flush()

	heartbeat := time.NewTicker(HeartbeatInterval)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return err
			}
			flusher.Flush()
		case ev, open := <-events:
			if !open {
				return nil
			}
			if err := write(w, ev); err != nil {
				slog.Warn("drop stream event", "event", ev.Name, "error", err)
				if ev.Name != EventError {
					_ = write(w, Event{ //nolint:errcheck // client may already be gone
						Name: EventError,
						Data: map[string]string{"event": ev.Name, "message": "event could not be delivered"},
					})
					flusher.Flush()
				}
				continue
			}
			flusher.Flush()
		}
	}
}
