package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/pavelanni/trainer/internal/model"
	"github.com/pavelanni/trainer/internal/quiz"
)

// State is all quiz and chat state owned by one user session. Nothing here
// is shared between sessions; the progress log is the only cross-session
// resource and lives elsewhere.
type State struct {
	mu sync.Mutex

	// ID is the session identifier recorded with progress entries.
	ID       string
	UserName string
	Module   string

	Quiz       *quiz.Session
	Transcript []model.ChatMessage

	// SummaryDone gates the one-shot "generate summary" action.
	SummaryDone bool

	docModule string
	docText   string
}

// Lock serializes handler access to the state. Each user action is one
// lock-held round of updates; within a session nothing runs concurrently.
func (s *State) Lock() { s.mu.Lock() }

// Unlock releases the state.
func (s *State) Unlock() { s.mu.Unlock() }

// AppendChat appends one transcript entry.
func (s *State) AppendChat(role model.Role, content string) {
	s.Transcript = append(s.Transcript, model.ChatMessage{Role: role, Content: content})
}

// ResetChat clears the transcript and the summary guard.
func (s *State) ResetChat() {
	s.Transcript = nil
	s.SummaryDone = false
}

// SetDocText caches the extracted document text for a module so chat and
// retry do not re-extract on every action.
func (s *State) SetDocText(module, text string) {
	s.docModule = module
	s.docText = text
}

// DocText returns the cached document text for the given module.
func (s *State) DocText(module string) (string, bool) {
	if s.docModule != module {
		return "", false
	}
	return s.docText, true
}

// ClearDocText drops the cached document text.
func (s *State) ClearDocText() {
	s.docModule = ""
	s.docText = ""
}

// Manager tracks active sessions by opaque token. All state is in memory;
// sessions vanish on restart.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*State)}
}

// Create registers a new session for the named user and returns the opaque
// cookie token and the new state.
func (m *Manager) Create(userName string, passingScore int) (string, *State) {
	token := uuid.NewString()
	st := &State{
		ID:       uuid.NewString(),
		UserName: userName,
		Quiz:     quiz.NewSession(passingScore),
	}
	m.mu.Lock()
	m.sessions[token] = st
	m.mu.Unlock()
	return token, st
}

// Get returns the session state for a token.
func (m *Manager) Get(token string) (*State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.sessions[token]
	return st, ok
}

// Delete removes a session.
func (m *Manager) Delete(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

type stateCtxKey struct{}

// NewContext stores a session state in the request context.
func NewContext(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, stateCtxKey{}, st)
}

// FromContext retrieves the session state from context, or nil.
func FromContext(ctx context.Context) *State {
	st, _ := ctx.Value(stateCtxKey{}).(*State)
	return st
}
