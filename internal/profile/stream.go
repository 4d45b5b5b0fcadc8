// AngelaMos | 2026
// stream.go

package profile

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/carterperez-dev/mahuru-activation/internal/core"
	"github.com/carterperez-dev/mahuru-activation/internal/middleware"
	"github.com/carterperez-dev/mahuru-activation/internal/stream"
)

// Stream pushes the caller's profile on every change. A ready event follows
// the first snapshot; if none arrives within the resolve timeout, ready is
// sent with a null profile so clients stop waiting.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	queue := stream.NewQueue(8)
	resolved := make(chan *User, 1)
	var once sync.Once

	unsubscribe, err := h.service.Listen(ctx, userID, func(u *User) {
		queue.Send(stream.Event{Name: stream.EventSnapshot, Data: u})
		once.Do(func() { resolved <- u })
	})
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	defer unsubscribe()

	go func() {
		timer := time.NewTimer(h.resolveTimeout)
		defer timer.Stop()

		select {
		case u := <-resolved:
			queue.Send(stream.Event{Name: stream.EventReady, Data: ReadyEvent{Profile: u}})
		case <-timer.C:
			slog.Warn("profile stream resolve timed out", "user_id", userID, "timeout", h.resolveTimeout)
			queue.Send(stream.Event{Name: stream.EventReady, Data: ReadyEvent{TimedOut: true}})
		case <-ctx.Done():
		}
	}()

	if err := stream.Serve(w, r, queue.Events()); err != nil {
		slog.Warn("profile stream ended", "user_id", userID, "error", err)
	}
}
