package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/careercoach/careercoach/backend/go-services/internal/models"
	"gorm.io/gorm"
)

// ErrDuplicate is returned by a repository when a write hits a unique index
// (email, google_id or linkedin_id).
var ErrDuplicate = errors.New("users: duplicate key")

// UserRepository defines persistence operations for users.
// Lookups return (nil, nil) when no row matches.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	// AttachProviderID sets the provider column only if it is still NULL and
	// reports whether a row was updated.
	AttachProviderID(ctx context.Context, userID, provider, providerID string) (bool, error)
}

// GormUserRepository implements UserRepository on top of GORM (Postgres or SQLite).
type GormUserRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormUserRepository creates a repository over an open GORM handle.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *GormUserRepository) first(ctx context.Context, query string, arg string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where(query, arg).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) Create(ctx context.Context, u *models.User) error {
	now := r.now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *GormUserRepository) AttachProviderID(ctx context.Context, userID, provider, providerID string) (bool, error) {
	col, err := providerColumn(provider)
	if err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND "+col+" IS NULL", userID).
		Updates(map[string]interface{}{col: providerID, "updated_at": r.now()})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, ErrDuplicate
		}
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func providerColumn(provider string) (string, error) {
	switch provider {
	case models.ProviderGoogle:
		return "google_id", nil
	case models.ProviderLinkedIn:
		return "linkedin_id", nil
	}
	return "", fmt.Errorf("unknown provider %q", provider)
}
