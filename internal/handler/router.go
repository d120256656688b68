package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/ai-studio/internal/handler/chat"
	"github.com/zhouzirui/ai-studio/internal/handler/status"
	"github.com/zhouzirui/ai-studio/internal/handler/stream"
	middlewarePkg "github.com/zhouzirui/ai-studio/internal/middleware"
	"github.com/zhouzirui/ai-studio/internal/service/session"
	"github.com/zhouzirui/ai-studio/pkg/utils"
)

// NewRouter wires HTTP routes to the session controller.
func NewRouter(ctrl *session.Controller, backend status.HealthChecker, corsOrigins []string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(corsOrigins))

	chatHandler := chat.New(ctrl)
	statusHandler := status.New(backend)
	streamHandler := stream.New(ctrl, logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		statusHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
	})

	return r
}
