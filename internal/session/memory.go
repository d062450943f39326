package session

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]Session
	chats    map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]Session),
		chats:    make(map[string]int64),
	}
}

func (m *MemoryStore) Get(_ context.Context, chatID int64) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[chatID]
	if !ok {
		return Session{}, ErrNotFound
	}
	return clone(s), nil
}

func (m *MemoryStore) Save(_ context.Context, session Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ChatID] = clone(session)
	return nil
}

func (m *MemoryStore) Login(_ context.Context, session Session, username string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if chat, ok := m.chats[username]; ok && chat != session.ChatID {
		return Session{}, ErrTaken
	}
	if prev, ok := m.sessions[session.ChatID]; ok && prev.Username != "" && prev.Username != username {
		delete(m.chats, prev.Username)
	}
	session.Username = username
	session.Candidate = ""
	session.State = StateMainMenu
	m.chats[username] = session.ChatID
	m.sessions[session.ChatID] = clone(session)
	return session, nil
}

func (m *MemoryStore) Delete(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[chatID]; ok && s.Username != "" {
		delete(m.chats, s.Username)
	}
	delete(m.sessions, chatID)
	return nil
}

func (m *MemoryStore) ChatOf(_ context.Context, username string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	chat, ok := m.chats[username]
	if !ok {
		return 0, ErrNotFound
	}
	return chat, nil
}

func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions), nil
}

func clone(s Session) Session {
	if s.Draft != nil {
		d := *s.Draft
		d.Participants = append([]string(nil), d.Participants...)
		s.Draft = &d
	}
	return s
}
