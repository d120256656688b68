package chat

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/ai-studio/internal/model/document"
	"github.com/zhouzirui/ai-studio/internal/service/session"
	"github.com/zhouzirui/ai-studio/pkg/utils"
)

// maxFileSize 限制单个待上传文件的大小。
const maxFileSize = 32 << 20

// Handler 会话 API 的HTTP处理器
type Handler struct {
	ctrl *session.Controller
}

// New 创建会话处理器
func New(ctrl *session.Controller) *Handler {
	return &Handler{ctrl: ctrl}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/session", h.handleGetSession)
	r.Get("/messages", h.handleListMessages)
	r.Get("/draft", h.handleGetDraft)
	r.Put("/draft", h.handleSetDraft)
	r.Post("/send", h.handleSend)
	r.Post("/file", h.handleSelectFile)
	r.Delete("/file", h.handleClearFile)
	r.Post("/upload", h.handleUpload)
	r.Post("/ingest", h.handleIngest)
}

// handleGetSession 返回当前会话标识
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.ctrl.Store().Session())
}

// handleListMessages 返回完整的消息列表
func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"messages": h.ctrl.Store().Transcript(),
	})
}

// handleGetDraft 返回草稿状态
func (h *Handler) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.ctrl.Store().Draft())
}

// handleSetDraft 替换草稿文本
func (h *Handler) handleSetDraft(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.ctrl.Store().SetDraftText(payload.Text)
	utils.RespondJSON(w, http.StatusOK, h.ctrl.Store().Draft())
}

// handleSend 发送草稿文本；请求体中的 text 会先替换草稿
func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text *string `json:"text"`
	}
	if r.ContentLength != 0 {
		if err := utils.DecodeJSON(w, r, &payload); err != nil && !errors.Is(err, io.EOF) {
			utils.RespondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	if payload.Text != nil {
		h.ctrl.Store().SetDraftText(*payload.Text)
	}
	pending, err := h.ctrl.Send(r.Context())
	if err != nil {
		if errors.Is(err, session.ErrEmptyInput) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusAccepted, map[string]any{
		"status":  "sending",
		"message": pending.Request(),
	})
}

// handleSelectFile 选择待上传文件（multipart 字段 file）
func (h *Handler) handleSelectFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFileSize+(1<<20))
	src, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read file")
		return
	}
	if !document.Accepted(header.Filename) {
		utils.RespondError(w, http.StatusUnsupportedMediaType, "only .pdf, .txt and .md files are accepted")
		return
	}

	h.ctrl.Store().SetDraftFile(document.FromBytes(header.Filename, data))
	utils.RespondJSON(w, http.StatusOK, h.ctrl.Store().Draft())
}

// handleClearFile 清除待上传文件
func (h *Handler) handleClearFile(w http.ResponseWriter, r *http.Request) {
	h.ctrl.Store().ClearDraftFile()
	w.WriteHeader(http.StatusNoContent)
}

// handleUpload 上传已选择的文件
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if _, err := h.ctrl.Upload(r.Context()); err != nil {
		if errors.Is(err, session.ErrNoFileSelected) {
			utils.RespondError(w, http.StatusBadRequest, session.NoFileWarning)
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "uploading"})
}

// handleIngest 请求后端重建索引
func (h *Handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	h.ctrl.Ingest(r.Context())
	utils.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "ingesting"})
}
