package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/ai-studio/internal/model/chat"
	"github.com/zhouzirui/ai-studio/internal/model/document"
	"github.com/zhouzirui/ai-studio/internal/service/backend"
	chatservice "github.com/zhouzirui/ai-studio/internal/service/chat"
	"github.com/zhouzirui/ai-studio/internal/service/session"
)

type stubGateway struct {
	answer  string
	uploads int
}

func (g *stubGateway) Chat(context.Context, string) (backend.ChatResult, error) {
	return backend.ChatResult{Answer: backend.LooseString(g.answer)}, nil
}

func (g *stubGateway) Upload(context.Context, *document.File) (backend.UploadResult, error) {
	g.uploads++
	return backend.UploadResult{}, nil
}

func (g *stubGateway) Ingest(context.Context) (backend.UploadResult, error) {
	return backend.UploadResult{}, nil
}

func setupRouter() (*chi.Mux, *session.Controller, *stubGateway) {
	gw := &stubGateway{answer: "hi there"}
	ctrl := session.NewController(chatservice.NewService(), gw, nil)
	handler := New(ctrl)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, ctrl, gw
}

func TestSendAppendsAndReplies(t *testing.T) {
	r, ctrl, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(`{"text":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}
	ctrl.Wait()

	got := ctrl.Store().Transcript()
	want := []chat.Message{
		{Sender: chat.SenderUser, Text: "hello"},
		{Sender: chat.SenderBot, Text: "hi there"},
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("unexpected transcript %+v", got)
	}
}

func TestSendEchoesAppendedMessage(t *testing.T) {
	r, ctrl, _ := setupRouter()

	stop := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
				ctrl.Store().SetDraftText(fmt.Sprintf("draft-%d", i))
			}
		}
	}()

	var echoed []chat.Message
	for i := 0; i < 20; i++ {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/send", nil))
		if resp.Code == http.StatusNoContent {
			continue
		}
		if resp.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d", resp.Code)
		}
		var body struct {
			Message chat.Message `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		echoed = append(echoed, body.Message)
	}
	close(stop)
	<-writerDone
	ctrl.Wait()

	appended := make(map[string]bool)
	for _, msg := range ctrl.Store().Transcript() {
		if msg.Sender == chat.SenderUser {
			appended[msg.Text] = true
		}
	}
	for _, msg := range echoed {
		if msg.Sender != chat.SenderUser || !appended[msg.Text] {
			t.Fatalf("echoed message %+v was never appended", msg)
		}
	}
}

func TestSendUsesDraftWhenBodyEmpty(t *testing.T) {
	r, ctrl, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPut, "/draft", strings.NewReader(`{"text":"from draft"}`))
	r.ServeHTTP(httptest.NewRecorder(), req)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/send", nil))
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}
	ctrl.Wait()

	if ctrl.Store().Transcript()[0].Text != "from draft" {
		t.Fatalf("unexpected first message %+v", ctrl.Store().Transcript()[0])
	}
	if ctrl.Store().Draft().Text != "" {
		t.Fatal("draft should be cleared after the reply")
	}
}

func TestSendBlankReturnsNoContent(t *testing.T) {
	r, ctrl, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(`{"text":"   "}`))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if ctrl.Store().Len() != 0 {
		t.Fatal("blank send must not touch the transcript")
	}
}

func TestSendInvalidBody(t *testing.T) {
	r, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(`{`))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestUploadWithoutFileWarns(t *testing.T) {
	r, ctrl, gw := setupRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/upload", nil))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["error"] != "Please select a file first." {
		t.Fatalf("unexpected error %q", body["error"])
	}
	if gw.uploads != 0 || ctrl.Store().Len() != 0 {
		t.Fatal("upload without file must not call the backend or touch the transcript")
	}
}

func multipartFile(t *testing.T, name, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	part.Write([]byte(content))
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestSelectFileThenUpload(t *testing.T) {
	r, ctrl, gw := setupRouter()

	body, contentType := multipartFile(t, "report.pdf", "%PDF")
	req := httptest.NewRequest(http.MethodPost, "/file", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if f := ctrl.Store().Draft().File; f == nil || f.Name != "report.pdf" {
		t.Fatalf("unexpected pending file %+v", f)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/upload", nil))
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}
	ctrl.Wait()

	if gw.uploads != 1 {
		t.Fatalf("expected one upload, got %d", gw.uploads)
	}
	got := ctrl.Store().Transcript()
	if len(got) != 1 || got[0].Text != `Uploaded "report.pdf". Indexed 0 chunks from 1 file(s).` {
		t.Fatalf("unexpected transcript %+v", got)
	}
	if ctrl.Store().Draft().File != nil {
		t.Fatal("pending file should be cleared")
	}
}

func TestSelectFileRejectsUnknownType(t *testing.T) {
	r, ctrl, _ := setupRouter()

	body, contentType := multipartFile(t, "photo.png", "png")
	req := httptest.NewRequest(http.MethodPost, "/file", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", resp.Code)
	}
	if ctrl.Store().Draft().File != nil {
		t.Fatal("rejected file must not be selected")
	}
}

func TestClearFile(t *testing.T) {
	r, ctrl, _ := setupRouter()
	ctrl.Store().SetDraftFile(document.FromBytes("a.txt", nil))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/file", nil))

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if ctrl.Store().Draft().File != nil {
		t.Fatal("file should be cleared")
	}
}

func TestListMessagesAndSession(t *testing.T) {
	r, ctrl, _ := setupRouter()
	ctrl.Store().AppendMessage(chat.SenderBot, "welcome")

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/messages", nil))
	var listed struct {
		Messages []chat.Message `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listed.Messages) != 1 || listed.Messages[0].Sender != chat.SenderBot {
		t.Fatalf("unexpected messages %+v", listed.Messages)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/session", nil))
	var sess chat.Session
	json.NewDecoder(resp.Body).Decode(&sess)
	if sess.ID != ctrl.Store().Session().ID {
		t.Fatalf("unexpected session %+v", sess)
	}
}
