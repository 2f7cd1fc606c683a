package sessions

import "time"

// Session is the server-held state behind the session cookie. During an
// OAuth handshake it carries the CSRF state and PKCE verifier; after login it
// carries only the user id.
type Session struct {
	ID           string    `bson:"_id" json:"id"`
	UserID       string    `bson:"userId,omitempty" json:"userId,omitempty"`
	Provider     string    `bson:"provider,omitempty" json:"provider,omitempty"`
	State        string    `bson:"state,omitempty" json:"state,omitempty"`
	CodeVerifier string    `bson:"codeVerifier,omitempty" json:"codeVerifier,omitempty"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	ExpiresAt    time.Time `bson:"expiresAt" json:"expiresAt"`
}

// Authenticated reports whether a user has been serialized into the session.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != ""
}

func (s *Session) expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
