package session

import (
	"context"
	"sync"

	"github.com/zhouzirui/ai-studio/internal/model/chat"
)

// Action names the kind of request a Pending tracks.
type Action string

const (
	ActionChat   Action = "chat"
	ActionUpload Action = "upload"
	ActionIngest Action = "ingest"
)

// State is the lifecycle of one dispatched action.
type State string

const (
	StateSending         State = "sending"
	StateAppendedSuccess State = "appended-success"
	StateAppendedError   State = "appended-error"
)

// Pending resolves once the reply of an action is in the transcript.
type Pending struct {
	action  Action
	request chat.Message
	done    chan struct{}

	mu    sync.Mutex
	state State
	reply chat.Message
	err   error
}

func newPending(action Action, request chat.Message) *Pending {
	return &Pending{action: action, request: request, done: make(chan struct{}), state: StateSending}
}

func (p *Pending) resolve(reply chat.Message, err error) {
	p.mu.Lock()
	p.reply = reply
	p.err = err
	if err != nil {
		p.state = StateAppendedError
	} else {
		p.state = StateAppendedSuccess
	}
	p.mu.Unlock()
	close(p.done)
}

// Action reports what was dispatched.
func (p *Pending) Action() Action { return p.action }

// Request is the user message appended at dispatch. It is the zero Message
// for actions that append nothing up front.
func (p *Pending) Request() chat.Message { return p.request }

// Done is closed after the reply has been appended.
func (p *Pending) Done() <-chan struct{} { return p.done }

// State returns the current lifecycle state.
func (p *Pending) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Wait blocks until the reply is appended or ctx ends. The returned error is
// the backend failure, if any; the reply message is appended either way.
func (p *Pending) Wait(ctx context.Context) (chat.Message, error) {
	select {
	case <-p.done:
	case <-ctx.Done():
		return chat.Message{}, ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reply, p.err
}
