package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// DefaultTTL is the lifetime of a server session.
const DefaultTTL = 24 * time.Hour

// Service wraps repository operations with business logic
type Service struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time
}

func NewService(r Repository, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{repo: r, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) TTL() time.Duration { return s.ttl }

func newID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (s *Service) newSession() (*Session, error) {
	id, err := newID()
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}
	now := s.now()
	return &Session{ID: id, CreatedAt: now, ExpiresAt: now.Add(s.ttl)}, nil
}

// StartHandshake stores a fresh session holding the CSRF state and PKCE verifier
// for an OAuth login with the given provider.
func (s *Service) StartHandshake(ctx context.Context, provider string) (*Session, error) {
	sess, err := s.newSession()
	if err != nil {
		return nil, err
	}
	state, err := newID()
	if err != nil {
		return nil, fmt.Errorf("oauth state: %w", err)
	}
	sess.Provider = provider
	sess.State = state
	sess.CodeVerifier = oauth2.GenerateVerifier()
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Get returns the session if it exists and has not expired
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, nil
	}
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	if sess.expired(s.now()) {
		// cleanup expired session
		_ = s.repo.Delete(ctx, id)
		return nil, nil
	}
	return sess, nil
}

// Regenerate replaces old with a new session under a fresh id holding only
// userID. The old record is deleted, so a fixated id is useless after login.
func (s *Service) Regenerate(ctx context.Context, old *Session, userID string) (*Session, error) {
	if userID == "" {
		return nil, errors.New("regenerate session: empty user id")
	}
	sess, err := s.newSession()
	if err != nil {
		return nil, err
	}
	sess.UserID = userID
	if old != nil {
		sess.Provider = old.Provider
	}
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	if old != nil && old.ID != "" {
		if err := s.repo.Delete(ctx, old.ID); err != nil {
			return nil, fmt.Errorf("delete previous session: %w", err)
		}
	}
	return sess, nil
}

// Destroy deletes the session. Unknown ids are not an error.
func (s *Service) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.repo.Delete(ctx, id)
}
