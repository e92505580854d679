package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/clarus/internal/model"
	"github.com/dukerupert/clarus/internal/store"
)

var ErrNoSession = errors.New("auth: no such session")

// SessionCookie carries the session token.
const SessionCookie = "clarus_session"

// sessionKeyPrefix keeps sessions outside every user namespace.
const sessionKeyPrefix = "auth_session_"

const DefaultSessionTTL = 90 * 24 * time.Hour

type Session struct {
	Token     string     `json:"token"`
	User      model.User `json:"user"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Sessions issues sessions for the configured mock account. There is no
// credential check; login always succeeds.
type Sessions struct {
	medium store.Medium
	user   model.User
	ttl    time.Duration
	now    func() time.Time
}

func NewSessions(medium store.Medium, user model.User, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if user.Avatar == "" {
		user.Avatar = initials(user.Name)
	}
	return &Sessions{medium: medium, user: user, ttl: ttl, now: time.Now}
}

func (s *Sessions) Login() (*Session, error) {
	now := s.now().UTC()
	sess := &Session{
		Token:     uuid.NewString(),
		User:      s.user,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	if err := s.medium.Set(sessionKeyPrefix+sess.Token, string(data)); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Lookup returns the live session for token. Expired sessions are removed.
func (s *Sessions) Lookup(token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	raw, ok, err := s.medium.Get(sessionKeyPrefix + token)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if !ok {
		return nil, ErrNoSession
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, ErrNoSession
	}
	if !s.now().Before(sess.ExpiresAt) {
		if err := s.medium.Remove(sessionKeyPrefix + token); err != nil {
			return nil, fmt.Errorf("remove expired session: %w", err)
		}
		return nil, ErrNoSession
	}
	return &sess, nil
}

func (s *Sessions) Logout(token string) error {
	if err := s.medium.Remove(sessionKeyPrefix + token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes expired and unreadable sessions and returns how
// many were removed.
func (s *Sessions) DeleteExpired() (int, error) {
	keys, err := s.medium.Keys(sessionKeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}
	now := s.now()
	removed := 0
	for _, k := range keys {
		raw, ok, err := s.medium.Get(k)
		if err != nil {
			return removed, fmt.Errorf("get session: %w", err)
		}
		if !ok {
			continue
		}
		var sess Session
		if err := json.Unmarshal([]byte(raw), &sess); err == nil && now.Before(sess.ExpiresAt) {
			continue
		}
		if err := s.medium.Remove(k); err != nil {
			return removed, fmt.Errorf("delete session: %w", err)
		}
		removed++
	}
	return removed, nil
}

func initials(name string) string {
	var out []rune
	start := true
	for _, r := range name {
		if r == ' ' {
			start = true
			continue
		}
		if start {
			out = append(out, r)
			start = false
		}
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}
