package sessions

import (
	"context"
	"fmt"

	"github.com/careercoach/careercoach/backend/go-services/internal/models"
)

// UserFinder loads a user by id, returning (nil, nil) when it does not exist.
// Satisfied by *users.Service.
type UserFinder interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Serializer stores only the user id in the session and reloads the user on
// every request.
type Serializer struct {
	sessions *Service
	users    UserFinder
}

func NewSerializer(s *Service, u UserFinder) *Serializer {
	return &Serializer{sessions: s, users: u}
}

// Serialize binds user to a regenerated session and returns it.
func (z *Serializer) Serialize(ctx context.Context, sess *Session, user *models.User) (*Session, error) {
	if user == nil {
		return nil, fmt.Errorf("serialize: nil user")
	}
	return z.sessions.Regenerate(ctx, sess, user.ID)
}

// Deserialize returns the current user for sess. An anonymous session or a
// user that no longer exists yields (nil, nil).
func (z *Serializer) Deserialize(ctx context.Context, sess *Session) (*models.User, error) {
	if !sess.Authenticated() {
		return nil, nil
	}
	u, err := z.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("deserialize user %s: %w", sess.UserID, err)
	}
	return u, nil
}
