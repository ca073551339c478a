package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/quantumhc/assessment/internal/model"
)

// Context scopes every resolver call to one user session and one template.
// The resolver is a pure function of (Context, quantum defaults, selected
// custom standard, request); there is no hidden global session.
type Context struct {
	SessionID  string
	TemplateID uint
}

// NewSessionID mints an identifier for a fresh user session.
func NewSessionID() string {
	return uuid.NewString()
}

// Store keeps per-session, per-template adjustment state. Each user's
// session is mutated sequentially, but the store itself is shared across
// all requests, so access is guarded by one mutex.
type Store interface {
	Get(ctx Context) *model.SessionState
	Put(ctx Context, state *model.SessionState)
	Delete(ctx Context)
	// Update applies fn to the state under the lock. fn receives a state
	// with all adjustment maps allocated; if the state it leaves behind is
	// empty the bucket is removed entirely.
	Update(ctx Context, fn func(state *model.SessionState))
}

type memoryStore struct {
	mu     sync.Mutex
	states map[string]*model.SessionState
}

func NewStore() Store {
	return &memoryStore{states: make(map[string]*model.SessionState)}
}

func key(ctx Context) string {
	return fmt.Sprintf("%s:%d", ctx.SessionID, ctx.TemplateID)
}

func (s *memoryStore) Get(ctx Context) *model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[key(ctx)]
	if !ok {
		return nil
	}
	return &model.SessionState{
		Adjustment:         state.Adjustment.Clone(),
		SelectedStandardID: state.SelectedStandardID,
	}
}

func (s *memoryStore) Put(ctx Context, state *model.SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state.IsEmpty() {
		delete(s.states, key(ctx))
		return
	}
	s.states[key(ctx)] = state
}

func (s *memoryStore) Delete(ctx Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, key(ctx))
}

func (s *memoryStore) Update(ctx Context, fn func(state *model.SessionState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[key(ctx)]
	if !ok {
		state = &model.SessionState{}
	}
	if state.Adjustment == nil {
		state.Adjustment = model.NewSessionAdjustment()
	}
	fn(state)
	if state.IsEmpty() {
		delete(s.states, key(ctx))
		return
	}
	s.states[key(ctx)] = state
}
