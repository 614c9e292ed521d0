package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/scuti-ai/seocanvas/internal/domain"
)

// SessionStore holds the known conversations and the active-session pointer.
// The collection lives in memory for the lifetime of the console; sessions
// are never deleted in place, only replaced or flipped inactive. All
// mutation goes through the store's mutex (single-writer policy).
type SessionStore struct {
	mu       sync.Mutex
	gw       Gateway
	fresh    *FreshnessCache
	sessions []domain.Session
	active   *domain.Session
	status   map[string]any
}

func NewSessionStore(gw Gateway, fresh *FreshnessCache) *SessionStore {
	return &SessionStore{gw: gw, fresh: fresh}
}

// List returns the owner's sessions, pinned first, most recent activity
// next. Within the freshness window the previously fetched slice is
// returned unchanged with no network call.
func (s *SessionStore) List(ctx context.Context, ownerID string, limit int) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fresh.ShouldRefetch(cacheKeySessions) {
		return s.sessions, nil
	}

	raws, err := s.gw.ListSessions(ctx, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessions := make([]domain.Session, 0, len(raws))
	for _, raw := range raws {
		sessions = append(sessions, sessionFromRaw(raw, ownerID))
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].Pinned != sessions[j].Pinned {
			return sessions[i].Pinned
		}
		return sessions[i].LastActivity.After(sessions[j].LastActivity)
	})

	s.sessions = sessions
	s.fresh.MarkFetched(cacheKeySessions)
	return s.sessions, nil
}

// Load always bypasses the freshness cache: a session's content can change
// between visits. The prior active session is replaced wholesale.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	raw, err := s.gw.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	sess := sessionFromRaw(raw, "")
	if sess.ID == "" {
		sess.ID = sessionID
	}

	s.mu.Lock()
	s.active = &sess
	s.mu.Unlock()
	return &sess, nil
}

// Select makes the given session active. When the session already carries
// its messages (it came from the loaded list) it is used directly; a
// re-fetch on every click would defeat keeping the list in memory.
func (s *SessionStore) Select(ctx context.Context, sess domain.Session) (*domain.Session, error) {
	if len(sess.Messages) > 0 {
		s.mu.Lock()
		copied := sess
		s.active = &copied
		s.mu.Unlock()
		return s.active, nil
	}
	return s.Load(ctx, sess.ID)
}

// NewEphemeral creates a client-only session placeholder with the sentinel
// id prefix and makes it active. No network call.
func (s *SessionStore) NewEphemeral(ownerID string) *domain.Session {
	sess := domain.Session{
		ID:        domain.EphemeralIDPrefix + uuid.NewString(),
		OwnerID:   ownerID,
		Title:     "New conversation",
		Messages:  []domain.Message{},
		CreatedAt: time.Now(),
		IsActive:  true,
	}

	s.mu.Lock()
	s.active = &sess
	s.mu.Unlock()
	return s.active
}

// Complete archives the session on the gateway and flips IsActive both on
// the active slot (when it matches) and in the stored collection. The
// session stays listed.
func (s *SessionStore) Complete(ctx context.Context, sessionID string) error {
	if err := s.gw.CompleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("complete session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil && s.active.ID == sessionID {
		s.active.IsActive = false
	}
	for i := range s.sessions {
		if s.sessions[i].ID == sessionID {
			s.sessions[i].IsActive = false
		}
	}
	return nil
}

// SystemStatus is the second freshness-guarded read, keyed independently of
// the session list.
func (s *SessionStore) SystemStatus(ctx context.Context) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fresh.ShouldRefetch(cacheKeyStatus) && s.status != nil {
		return s.status, nil
	}

	status, err := s.gw.SystemStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("system status: %w", err)
	}
	s.status = status
	s.fresh.MarkFetched(cacheKeyStatus)
	return s.status, nil
}

// Find returns a copy of a session from the cached collection, or nil.
func (s *SessionStore) Find(sessionID string) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessions {
		if s.sessions[i].ID == sessionID {
			copied := s.sessions[i]
			return &copied
		}
	}
	return nil
}

// Active returns a copy of the active session, or nil.
func (s *SessionStore) Active() *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	copied := *s.active
	copied.Messages = append([]domain.Message(nil), s.active.Messages...)
	return &copied
}

// AppendMessage appends to the active session's timeline.
func (s *SessionStore) AppendMessage(sessionID string, msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return domain.ErrNoActiveSession
	}
	if s.active.ID != sessionID {
		return domain.ErrSessionNotFound
	}
	s.active.Messages = append(s.active.Messages, msg)
	s.active.LastActivity = msg.Timestamp
	return nil
}

// RemoveMessage removes exactly one message by identity. Identity-based
// removal keeps the rollback correct even if other messages were appended
// to the same session in the interim.
func (s *SessionStore) RemoveMessage(sessionID, messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || s.active.ID != sessionID {
		return
	}
	kept := s.active.Messages[:0]
	for _, m := range s.active.Messages {
		if m.ID != messageID {
			kept = append(kept, m)
		}
	}
	s.active.Messages = kept
}

// Promote replaces an ephemeral session's id with the gateway-assigned one
// and adds the session to the collection, keeping exactly one entry per id.
func (s *SessionStore) Promote(ephemeralID, realID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || s.active.ID != ephemeralID {
		return
	}
	s.active.ID = realID

	for i := range s.sessions {
		if s.sessions[i].ID == realID || s.sessions[i].ID == ephemeralID {
			s.sessions[i] = *s.active
			return
		}
	}
	s.sessions = append([]domain.Session{*s.active}, s.sessions...)
}
