// Package session drives the send and upload flows of one conversation.
//
// Every action is two independent transitions: an optional local append that
// happens before the call returns, and a reply append performed by a goroutine
// once the backend call resolves. Replies land in completion order. Nothing is
// cancelled once issued.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/zhouzirui/ai-studio/internal/model/chat"
	"github.com/zhouzirui/ai-studio/internal/model/document"
	"github.com/zhouzirui/ai-studio/internal/service/backend"
	chatservice "github.com/zhouzirui/ai-studio/internal/service/chat"
)

// NoFileWarning is shown to the user when an upload is attempted without a file.
const NoFileWarning = "Please select a file first."

var (
	// ErrEmptyInput is returned for a blank send. Presentations ignore it.
	ErrEmptyInput = errors.New("empty input")
	// ErrNoFileSelected is returned for an upload without a pending file.
	ErrNoFileSelected = errors.New("no file selected")
)

// Gateway is the subset of the backend client the controller needs.
type Gateway interface {
	Chat(ctx context.Context, query string) (backend.ChatResult, error)
	Upload(ctx context.Context, file *document.File) (backend.UploadResult, error)
	Ingest(ctx context.Context) (backend.UploadResult, error)
}

// Controller owns the conversation store and is the only writer of replies.
type Controller struct {
	store   *chatservice.Service
	gateway Gateway
	logger  *zap.Logger

	inflight sync.WaitGroup
}

// NewController wires a store to a gateway.
func NewController(store *chatservice.Service, gateway Gateway, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		store:   store,
		gateway: gateway,
		logger:  logger.With(zap.String("session", store.Session().ID)),
	}
}

// Store exposes the conversation state for rendering.
func (c *Controller) Store() *chatservice.Service {
	return c.store
}

// Submit replaces the draft text with text and sends it.
func (c *Controller) Submit(ctx context.Context, text string) (*Pending, error) {
	c.store.SetDraftText(text)
	return c.Send(ctx)
}

// Send dispatches the current draft text as a chat query. The user message is
// appended before Send returns and is available from Pending.Request; the reply
// is appended when the request resolves, after which the draft text is cleared.
func (c *Controller) Send(ctx context.Context) (*Pending, error) {
	text := c.store.Draft().Text
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	request := c.store.AppendMessage(chat.SenderUser, text)

	p := newPending(ActionChat, request)
	c.dispatch(ctx, p, func(ctx context.Context) (string, error) {
		res, err := c.gateway.Chat(ctx, text)
		if err != nil {
			return backend.ChatFailedText, err
		}
		return backend.FormatChatReply(res), nil
	}, c.store.ClearDraftText)
	return p, nil
}

// Upload dispatches the pending file. The file selection is cleared when the
// request resolves, whatever the outcome.
func (c *Controller) Upload(ctx context.Context) (*Pending, error) {
	return c.upload(ctx, c.store.Draft().File, c.store.ClearDraftFile)
}

// UploadFile selects file and uploads exactly that file.
func (c *Controller) UploadFile(ctx context.Context, file *document.File) (*Pending, error) {
	if file == nil {
		return nil, ErrNoFileSelected
	}
	c.store.SetDraftFile(file)
	return c.upload(ctx, file, c.store.ClearDraftFile)
}

// UploadDocument uploads file without touching the draft. The reply is
// appended to the transcript like any other upload.
func (c *Controller) UploadDocument(ctx context.Context, file *document.File) (*Pending, error) {
	return c.upload(ctx, file, nil)
}

func (c *Controller) upload(ctx context.Context, file *document.File, reset func()) (*Pending, error) {
	if file == nil {
		return nil, ErrNoFileSelected
	}

	p := newPending(ActionUpload, chat.Message{})
	c.dispatch(ctx, p, func(ctx context.Context) (string, error) {
		res, err := c.gateway.Upload(ctx, file)
		if err != nil {
			return backend.UploadFailedText, err
		}
		return backend.FormatUploadReply(file.Name, res), nil
	}, reset)
	return p, nil
}

// Ingest asks the backend to re-index its folder and reports the outcome.
func (c *Controller) Ingest(ctx context.Context) *Pending {
	p := newPending(ActionIngest, chat.Message{})
	c.dispatch(ctx, p, func(ctx context.Context) (string, error) {
		res, err := c.gateway.Ingest(ctx)
		if err != nil {
			return backend.IngestFailedText, err
		}
		return backend.FormatIngestReply(res), nil
	}, nil)
	return p
}

// Wait blocks until every dispatched action has appended its reply.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// WaitContext is Wait bounded by ctx. Requests still in flight when ctx ends
// keep running and append their replies whenever they resolve.
func (c *Controller) WaitContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) dispatch(ctx context.Context, p *Pending, call func(context.Context) (string, error), reset func()) {
	reqCtx := context.WithoutCancel(ctx)

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()

		text, err := call(reqCtx)
		if err != nil {
			c.logFailure(p.Action(), err)
		}
		reply := c.store.AppendMessage(chat.SenderBot, text)
		if reset != nil {
			reset()
		}
		p.resolve(reply, err)
	}()
}

func (c *Controller) logFailure(action Action, err error) {
	fields := []zap.Field{zap.String("action", string(action)), zap.Error(err)}

	var berr *backend.Error
	if errors.As(err, &berr) {
		fields = append(fields,
			zap.String("kind", string(berr.Kind)),
			zap.Int("status", berr.Status),
			zap.String("request_id", berr.RequestID))
		if berr.Body != "" {
			fields = append(fields, zap.String("body", berr.Body))
		}
	}
	c.logger.Warn("backend request failed", fields...)
}
