package models

import (
	"sort"
	"sync"
	"time"
)

// SessionInfo is the read-only snapshot handed out over the api.
type SessionInfo struct {
	UserID       string `json:"user_id"`
	SessionID    string `json:"session_id"`
	Messages     int    `json:"conversation_length"`
	CreatedAt    string `json:"created_at"`
	LastActivity string `json:"last_activity"`
}

// SessionRef identifies one session for pruning reports.
type SessionRef struct {
	UserID    string
	SessionID string
}

type sessionEntry struct {
	messages     []ChatMessage
	createdAt    time.Time
	lastActivity time.Time
}

// SessionStore keeps per-user chat sessions in memory. Sessions are
// ephemeral working state: they never touch the document store and are
// lost on restart. All methods are safe for concurrent use.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string]*sessionEntry
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]map[string]*sessionEntry)}
}

func (s *SessionStore) entry(userID, sessionID string) *sessionEntry {
	userSessions := s.sessions[userID]
	if userSessions == nil {
		userSessions = make(map[string]*sessionEntry)
		s.sessions[userID] = userSessions
	}
	e := userSessions[sessionID]
	if e == nil {
		now := time.Now().UTC()
		e = &sessionEntry{createdAt: now, lastActivity: now}
		userSessions[sessionID] = e
	}
	return e
}

// GetOrCreate ensures the session exists, refreshes its activity time and
// returns a snapshot.
func (s *SessionStore) GetOrCreate(userID, sessionID string) SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(userID, sessionID)
	e.lastActivity = time.Now().UTC()
	return snapshot(userID, sessionID, e)
}

// AppendMessage adds one message to the session history, creating the
// session on first use.
func (s *SessionStore) AppendMessage(userID, sessionID string, msg ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(userID, sessionID)
	e.messages = append(e.messages, msg)
	e.lastActivity = time.Now().UTC()
}

// Messages returns a copy of the session history. A positive limit keeps
// only the most recent messages.
func (s *SessionStore) Messages(userID, sessionID string, limit int) []ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.sessions[userID][sessionID]
	if e == nil {
		return nil
	}
	msgs := e.messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]ChatMessage, len(msgs))
	copy(out, msgs)
	return out
}

// ClearSession empties the session history but keeps the session alive.
func (s *SessionStore) ClearSession(userID, sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.sessions[userID][sessionID]
	if e == nil {
		return false
	}
	e.messages = nil
	e.lastActivity = time.Now().UTC()
	return true
}

// DeleteSession removes the session entirely.
func (s *SessionStore) DeleteSession(userID, sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	userSessions := s.sessions[userID]
	if _, ok := userSessions[sessionID]; !ok {
		return false
	}
	delete(userSessions, sessionID)
	if len(userSessions) == 0 {
		delete(s.sessions, userID)
	}
	return true
}

// UserSessions lists a user's session ids, sorted for stable output.
func (s *SessionStore) UserSessions(userID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions[userID]))
	for id := range s.sessions[userID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *SessionStore) SessionCount(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions[userID])
}

// Sessions reports the total session count across all users.
func (s *SessionStore) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, userSessions := range s.sessions {
		total += len(userSessions)
	}
	return total
}

func (s *SessionStore) Info(userID, sessionID string) (SessionInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.sessions[userID][sessionID]
	if e == nil {
		return SessionInfo{}, false
	}
	return snapshot(userID, sessionID, e), true
}

// PruneIdle removes every session whose last activity is before the cutoff
// and reports what was removed so owned state elsewhere can be cleaned up.
func (s *SessionStore) PruneIdle(cutoff time.Time) []SessionRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pruned []SessionRef
	for userID, userSessions := range s.sessions {
		for sessionID, e := range userSessions {
			if e.lastActivity.Before(cutoff) {
				delete(userSessions, sessionID)
				pruned = append(pruned, SessionRef{UserID: userID, SessionID: sessionID})
			}
		}
		if len(userSessions) == 0 {
			delete(s.sessions, userID)
		}
	}
	return pruned
}

func snapshot(userID, sessionID string, e *sessionEntry) SessionInfo {
	return SessionInfo{
		UserID:       userID,
		SessionID:    sessionID,
		Messages:     len(e.messages),
		CreatedAt:    e.createdAt.Format(time.RFC3339Nano),
		LastActivity: e.lastActivity.Format(time.RFC3339Nano),
	}
}
