package course

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"refyn-backend/internal/models"
)

const sessionIdleTTL = 6 * time.Hour

type sessionKey struct {
	userID   uuid.UUID
	courseID uuid.UUID
}

// SessionStore holds the live viewing sessions, one per (user, course).
// Sessions are memory-only; an expired or closed session simply discards
// its answers.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[sessionKey]*Session
}

func NewSessionStore() *SessionStore {
	store := &SessionStore{sessions: make(map[sessionKey]*Session)}

	// Janitor for abandoned sessions.
	go func() {
		for {
			time.Sleep(30 * time.Minute)
			store.mu.Lock()
			for k, s := range store.sessions {
				s.mu.Lock()
				idle := time.Since(s.lastUsed)
				s.mu.Unlock()
				if idle > sessionIdleTTL {
					delete(store.sessions, k)
				}
			}
			store.mu.Unlock()
		}
	}()

	return store
}

// Open creates a fresh session for the course, replacing any previous one
// for the same viewer. Opening always resets answers per the viewing
// session contract.
func (st *SessionStore) Open(userID uuid.UUID, c *models.Course) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	s := NewSession(c)
	st.sessions[sessionKey{userID, c.ID}] = s
	return s
}

func (st *SessionStore) Get(userID, courseID uuid.UUID) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[sessionKey{userID, courseID}]
	return s, ok
}

func (st *SessionStore) Close(userID, courseID uuid.UUID) {
	st.mu.Lock()
	defer st.mu.Unlock()

	delete(st.sessions, sessionKey{userID, courseID})
}
