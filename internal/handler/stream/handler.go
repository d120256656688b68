package stream

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/ai-studio/internal/model/chat"
	chatservice "github.com/zhouzirui/ai-studio/internal/service/chat"
	"github.com/zhouzirui/ai-studio/internal/service/session"
	"github.com/zhouzirui/ai-studio/pkg/utils"
)

// eventBuffer bounds how far a live client may fall behind before it is dropped.
const eventBuffer = 64

// Handler pushes conversation changes to browser clients over SSE and WebSocket.
type Handler struct {
	ctrl      *session.Controller
	logger    *zap.Logger
	upgrader  websocket.Upgrader
	keepAlive time.Duration
}

// New creates a stream handler.
func New(ctrl *session.Controller, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		ctrl:   ctrl,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		keepAlive: 15 * time.Second,
	}
}

// RegisterRoutes registers /events (SSE) and /ws (WebSocket).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.handleEvents)
	r.Get("/ws", h.handleWebSocket)
}

// Snapshot is the first frame of every stream. Message events that follow
// carry their transcript index; indexes below len(Messages) are already
// included here.
type Snapshot struct {
	Session  chat.Session      `json:"session"`
	Messages []chat.Message    `json:"messages"`
	Draft    chatservice.Draft `json:"draft"`
}

func (h *Handler) snapshot() Snapshot {
	store := h.ctrl.Store()
	return Snapshot{
		Session:  store.Session(),
		Messages: store.Transcript(),
		Draft:    store.Draft(),
	}
}

type subscription struct {
	events   chan chatservice.Event
	overflow chan struct{}
	cancel   func()
}

func (h *Handler) subscribe() *subscription {
	sub := &subscription{
		events:   make(chan chatservice.Event, eventBuffer),
		overflow: make(chan struct{}),
	}
	var once sync.Once
	sub.cancel = h.ctrl.Store().Subscribe(func(ev chatservice.Event) {
		select {
		case sub.events <- ev:
		default:
			once.Do(func() { close(sub.overflow) })
		}
	})
	return sub
}

// handleEvents streams store events as Server-Sent Events.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sub := h.subscribe()
	defer sub.cancel()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	seq := 0
	if err := utils.SendSSEEvent(w, flusher, seq, "snapshot", h.snapshot()); err != nil {
		h.logger.Debug("sse client gone", zap.Error(err))
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.overflow:
			h.logger.Warn("sse client too slow, closing stream")
			return
		case ev := <-sub.events:
			seq++
			if err := utils.SendSSEEvent(w, flusher, seq, string(ev.Kind), ev); err != nil {
				h.logger.Debug("sse client gone", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "keep-alive"); err != nil {
				return
			}
		}
	}
}
