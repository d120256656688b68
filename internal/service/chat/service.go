package chat

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/ai-studio/internal/model/chat"
	"github.com/zhouzirui/ai-studio/internal/model/document"
)

// EventKind names a store mutation delivered to subscribers.
type EventKind string

const (
	EventMessageAppended EventKind = "message"
	EventDraftChanged    EventKind = "draft"
)

// Draft is the not-yet-sent input of the session.
type Draft struct {
	Text string         `json:"text"`
	File *document.File `json:"file,omitempty"`
}

// Event describes one mutation. Index is the transcript position of an
// appended message.
type Event struct {
	Kind    EventKind     `json:"kind"`
	Index   int           `json:"index"`
	Message *chat.Message `json:"message,omitempty"`
	Draft   *Draft        `json:"draft,omitempty"`
}

// Listener receives store events. It runs on the mutating goroutine and must not block
// or call back into the store.
type Listener func(Event)

// Service encapsulates conversation state management for a single UI session.
type Service struct {
	session chat.Session

	mu         sync.RWMutex
	transcript []chat.Message
	draft      Draft

	// emitMu keeps listener delivery in mutation order.
	emitMu    sync.Mutex
	listeners []registration
	nextID    int
}

type registration struct {
	id int
	fn Listener
}

// NewService starts an empty session.
func NewService() *Service {
	return &Service{
		session: chat.Session{
			ID:        uuid.NewString(),
			CreatedAt: time.Now().UTC(),
		},
		transcript: make([]chat.Message, 0, 16),
	}
}

// Session returns the identity of this conversation.
func (s *Service) Session() chat.Session {
	return s.session
}

// AppendMessage adds a message to the end of the transcript. It cannot fail;
// an unknown sender is recorded as the bot.
func (s *Service) AppendMessage(sender chat.Sender, text string) chat.Message {
	if !sender.Valid() {
		sender = chat.SenderBot
	}
	msg := chat.Message{Sender: sender, Text: text}

	s.mu.Lock()
	s.transcript = append(s.transcript, msg)
	index := len(s.transcript) - 1
	s.emitMu.Lock()
	s.mu.Unlock()

	s.deliver(Event{Kind: EventMessageAppended, Index: index, Message: &msg})
	return msg
}

// SetDraftText replaces the draft input.
func (s *Service) SetDraftText(text string) {
	s.updateDraft(func(d *Draft) { d.Text = text })
}

// SetDraftFile replaces the pending file; nil clears it.
func (s *Service) SetDraftFile(file *document.File) {
	s.updateDraft(func(d *Draft) { d.File = file })
}

// ClearDraftText resets the draft input to empty.
func (s *Service) ClearDraftText() {
	s.SetDraftText("")
}

// ClearDraftFile drops the pending file.
func (s *Service) ClearDraftFile() {
	s.SetDraftFile(nil)
}

func (s *Service) updateDraft(apply func(*Draft)) {
	s.mu.Lock()
	apply(&s.draft)
	snapshot := s.draft
	s.emitMu.Lock()
	s.mu.Unlock()

	s.deliver(Event{Kind: EventDraftChanged, Draft: &snapshot})
}

// Draft returns a snapshot of the draft state.
func (s *Service) Draft() Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft
}

// Transcript returns a copy of the messages in display order.
func (s *Service) Transcript() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]chat.Message, len(s.transcript))
	copy(copied, s.transcript)
	return copied
}

// Len returns the number of transcript entries.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transcript)
}

// Subscribe registers fn for every subsequent mutation. Listeners are called
// in registration order. The returned func removes the registration.
func (s *Service) Subscribe(fn Listener) (cancel func()) {
	s.emitMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, registration{id: id, fn: fn})
	s.emitMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.emitMu.Lock()
			s.listeners = slices.DeleteFunc(s.listeners, func(r registration) bool { return r.id == id })
			s.emitMu.Unlock()
		})
	}
}

// deliver expects emitMu to be held and releases it.
func (s *Service) deliver(ev Event) {
	defer s.emitMu.Unlock()
	for _, r := range s.listeners {
		r.fn(ev)
	}
}
