package rag

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"docqa/internal/helper"
	"docqa/internal/index"
	"docqa/internal/models"
)

// Session is the state of one user's conversation with one document. Every
// pipeline call takes the session explicitly; sessions share nothing.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	document  *models.DocumentText
	chunks    []models.Chunk
	cache     IndexCache
	uploadSeq uint64
	querySeq  uint64
	cancel    context.CancelFunc
}

func NewSession(id string) *Session {
	return &Session{ID: id, CreatedAt: time.Now()}
}

// Document returns the normalized text of the current upload.
func (s *Session) Document() (models.DocumentText, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.document == nil {
		return models.DocumentText{}, false
	}
	return *s.document, true
}

// Chunks returns the chunks of the current upload.
func (s *Session) Chunks() []models.Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Chunk(nil), s.chunks...)
}

func (s *Session) current() (*index.Index, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, key := s.cache.Current()
	return idx, key, idx != nil
}

// beginQuery cancels any query still running on this session and returns a
// context for the new one.
func (s *Session) beginQuery(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.querySeq++
	seq := s.querySeq
	s.cancel = cancel
	s.mu.Unlock()

	return ctx, func() {
		s.mu.Lock()
		if s.querySeq == seq {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}
}

// Close cancels in-flight work and releases the cached index.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.uploadSeq++
	s.cache.Invalidate()
	s.document = nil
	s.chunks = nil
}

// SessionStore holds the live sessions of a multi-user server.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

func (st *SessionStore) Create() (*Session, error) {
	id, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	sess := NewSession(id)

	st.mu.Lock()
	st.sessions[id] = sess
	st.mu.Unlock()

	log.Info().Str("session", id).Msg("Session created")
	return sess, nil
}

func (st *SessionStore) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sess, ok := st.sessions[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return sess, nil
}

func (st *SessionStore) Delete(id string) error {
	st.mu.Lock()
	sess, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if !ok {
		return models.ErrSessionNotFound
	}
	sess.Close()
	log.Info().Str("session", id).Msg("Session deleted")
	return nil
}

func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Close ends every session.
func (st *SessionStore) Close() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()
	for _, sess := range sessions {
		sess.Close()
	}
}
