package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/ai-studio/internal/service/session"
)

const writeWait = 10 * time.Second

// inboundMessage 浏览器发来的指令
type inboundMessage struct {
	Type string  `json:"type"`
	Text *string `json:"text,omitempty"`
}

// outgoingMessage 推送给浏览器的消息
type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// wsConn 串行化对同一连接的写操作
type wsConn struct {
	conn      *websocket.Conn
	sessionID string
	mu        sync.Mutex
}

func (c *wsConn) send(msgType string, data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(outgoingMessage{
		Type:      msgType,
		SessionID: c.sessionID,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// handleWebSocket 处理WebSocket连接：推送会话变化，并接受 draft/send/upload/ingest 指令
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sub := h.subscribe()
	defer sub.cancel()

	ws := &wsConn{conn: conn, sessionID: h.ctrl.Store().Session().ID}
	if err := ws.send("snapshot", h.snapshot()); err != nil {
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		h.pump(ctx, ws, sub)
		// 推送结束时关闭连接，使下面的读循环退出
		_ = conn.Close()
	}()

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read ended", zap.Error(err))
			}
			break
		}
		h.handleInbound(ctx, ws, msg)
	}

	cancel()
	<-pumpDone
}

func (h *Handler) pump(ctx context.Context, ws *wsConn, sub *subscription) {
	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.overflow:
			h.logger.Warn("websocket client too slow, closing")
			return
		case ev := <-sub.events:
			if err := ws.send(string(ev.Kind), ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := ws.ping(); err != nil {
				return
			}
		}
	}
}

func (h *Handler) handleInbound(ctx context.Context, ws *wsConn, msg inboundMessage) {
	store := h.ctrl.Store()

	switch msg.Type {
	case "draft":
		if msg.Text != nil {
			store.SetDraftText(*msg.Text)
		}
	case "send":
		if msg.Text != nil {
			store.SetDraftText(*msg.Text)
		}
		if _, err := h.ctrl.Send(ctx); err != nil && !errors.Is(err, session.ErrEmptyInput) {
			h.sendError(ws, err.Error())
		}
	case "upload":
		if _, err := h.ctrl.Upload(ctx); err != nil {
			if errors.Is(err, session.ErrNoFileSelected) {
				_ = ws.send("warning", session.NoFileWarning)
				return
			}
			h.sendError(ws, err.Error())
		}
	case "ingest":
		h.ctrl.Ingest(ctx)
	default:
		raw, _ := json.Marshal(msg.Type)
		h.sendError(ws, "unknown message type "+string(raw))
	}
}

func (h *Handler) sendError(ws *wsConn, message string) {
	if err := ws.send("error", message); err != nil {
		h.logger.Debug("failed to deliver websocket error", zap.Error(err))
	}
}
