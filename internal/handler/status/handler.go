package status

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/ai-studio/pkg/utils"
)

// HealthChecker 由 backend.Client 实现
type HealthChecker interface {
	Health(ctx context.Context) error
	BaseURL() string
}

// Handler 后端状态查询的HTTP处理器
type Handler struct {
	backend HealthChecker
	timeout time.Duration
}

// New 创建状态处理器
func New(backend HealthChecker) *Handler {
	return &Handler{backend: backend, timeout: 5 * time.Second}
}

// RegisterRoutes 注册状态相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/status", h.handleStatus)
}

// handleStatus 探测后端是否可达；探测有超时，聊天请求没有
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	payload := map[string]any{"backend": h.backend.BaseURL()}
	if err := h.backend.Health(ctx); err != nil {
		payload["reachable"] = false
		payload["error"] = err.Error()
		utils.RespondJSON(w, http.StatusServiceUnavailable, payload)
		return
	}

	payload["reachable"] = true
	utils.RespondJSON(w, http.StatusOK, payload)
}
