package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/ai-studio/internal/model/document"
	"github.com/zhouzirui/ai-studio/internal/service/backend"
	chatservice "github.com/zhouzirui/ai-studio/internal/service/chat"
	"github.com/zhouzirui/ai-studio/internal/service/session"
)

func ptr(v float64) *backend.LooseCount {
	c := backend.LooseCount(v)
	return &c
}

type echoGateway struct{}

func (echoGateway) Chat(_ context.Context, query string) (backend.ChatResult, error) {
	return backend.ChatResult{Answer: backend.LooseString("echo: " + query)}, nil
}

func (echoGateway) Upload(context.Context, *document.File) (backend.UploadResult, error) {
	return backend.UploadResult{Indexed: ptr(3), Files: ptr(1)}, nil
}

func (echoGateway) Ingest(context.Context) (backend.UploadResult, error) {
	return backend.UploadResult{Indexed: ptr(7), Files: ptr(2)}, nil
}

func newTestModel(t *testing.T) (*Model, *session.Controller) {
	t.Helper()
	ctrl := session.NewController(chatservice.NewService(), echoGateway{}, nil)
	m := New(context.Background(), ctrl, nil, nil, Options{StartDir: t.TempDir()})
	t.Cleanup(m.Close)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, ctrl
}

func typeText(m *Model, text string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func TestTypingUpdatesDraft(t *testing.T) {
	m, ctrl := newTestModel(t)

	typeText(m, "hello")

	assert.Equal(t, "hello", ctrl.Store().Draft().Text)
}

func TestEnterSendsAndRendersReply(t *testing.T) {
	m, ctrl := newTestModel(t)

	typeText(m, "hello")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	ctrl.Wait()
	m.Update(storeChangedMsg{})

	view := m.View()
	assert.Contains(t, view, "You:")
	assert.Contains(t, view, "Bot:")
	assert.Contains(t, view, "echo: hello")
	assert.Equal(t, 2, ctrl.Store().Len())
	assert.Empty(t, m.input.Value())
}

func TestEnterWithBlankDraftDoesNothing(t *testing.T) {
	m, ctrl := newTestModel(t)

	typeText(m, "   ")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	ctrl.Wait()

	assert.Zero(t, ctrl.Store().Len())
	assert.Equal(t, "   ", ctrl.Store().Draft().Text)
}

func TestUploadWithoutFileShowsBlockingWarning(t *testing.T) {
	m, ctrl := newTestModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
	require.Contains(t, m.View(), session.NoFileWarning)

	// The acknowledging key must not reach the input.
	typeText(m, "x")
	assert.NotContains(t, m.View(), session.NoFileWarning)
	assert.Empty(t, ctrl.Store().Draft().Text)
	assert.Zero(t, ctrl.Store().Len())
}

func TestUploadSelectedFile(t *testing.T) {
	m, ctrl := newTestModel(t)
	ctrl.Store().SetDraftFile(document.FromBytes("notes.md", []byte("# notes")))
	m.Update(storeChangedMsg{})
	require.Contains(t, m.View(), "file: notes.md")

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
	ctrl.Wait()
	m.Update(storeChangedMsg{})

	view := m.View()
	assert.Contains(t, view, `Uploaded "notes.md". Indexed 3 chunks from 1 file(s).`)
	assert.Contains(t, view, "no file selected")
	assert.Nil(t, ctrl.Store().Draft().File)
}

func TestCtrlXClearsSelectedFile(t *testing.T) {
	m, ctrl := newTestModel(t)
	ctrl.Store().SetDraftFile(document.FromBytes("a.txt", []byte("a")))

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlX})

	assert.Nil(t, ctrl.Store().Draft().File)
}

func TestPickerOpensAndCancels(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	require.True(t, m.picking)
	assert.Contains(t, m.View(), "Select a document")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.picking)
}

func TestStoreChangeSignalsAreCoalesced(t *testing.T) {
	m, ctrl := newTestModel(t)

	for i := 0; i < 5; i++ {
		ctrl.Store().SetDraftText("x")
	}

	msg := m.waitForChange()()
	assert.IsType(t, storeChangedMsg{}, msg)
	assert.Empty(t, m.changes)
}
