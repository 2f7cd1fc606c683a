package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/careercoach/careercoach/backend/go-services/internal/models"
	"github.com/careercoach/careercoach/backend/go-services/internal/oauth"
	"github.com/careercoach/careercoach/backend/go-services/pkg/logger"
	"github.com/careercoach/careercoach/backend/go-services/pkg/metrics"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Link policies for attaching a provider id to an existing account.
const (
	LinkAlways    = "always"
	LinkOAuthOnly = "oauth_only"
)

const minPasswordLen = 8

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrLinkNotAllowed     = errors.New("provider cannot be linked to a password account")
	ErrInvalidInput       = errors.New("invalid registration input")
	ErrEmailNotVerified   = errors.New("provider reports the email as unverified")
)

// Service encapsulates user-related business logic
type Service struct {
	repo       UserRepository
	linkPolicy string
	cost       int
	newID      func() string
}

type Option func(*Service)

// WithLinkPolicy sets the account-linking policy (LinkAlways or LinkOAuthOnly).
func WithLinkPolicy(p string) Option {
	return func(s *Service) {
		if p != "" {
			s.linkPolicy = p
		}
	}
}

// WithBcryptCost overrides the password hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func NewService(r UserRepository, opts ...Option) *Service {
	s := &Service{
		repo:       r,
		linkPolicy: LinkAlways,
		cost:       bcrypt.DefaultCost,
		newID:      func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Reconcile maps a verified provider profile onto exactly one local user:
// an existing account with the same email gets the provider id attached
// (when still unset), otherwise a new verified account is created.
func (s *Service) Reconcile(ctx context.Context, provider string, p *oauth.Profile) (*models.User, error) {
	if p == nil || p.ID == "" {
		return nil, errors.New("reconcile: profile has no id")
	}
	email := p.PrimaryEmail()
	if email == "" {
		return nil, oauth.ErrNoEmail
	}

	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if u == nil {
		u, err = s.createFromProfile(ctx, provider, email, p)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, ErrDuplicate) {
			return nil, err
		}
		// lost the create race to a concurrent callback for the same email
		u, err = s.repo.FindByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("find user by email after conflict: %w", err)
		}
		if u == nil {
			return nil, fmt.Errorf("%s id %s already linked to another account: %w", provider, p.ID, ErrDuplicate)
		}
	}
	return s.link(ctx, provider, u, p)
}

func (s *Service) createFromProfile(ctx context.Context, provider, email string, p *oauth.Profile) (*models.User, error) {
	u := &models.User{
		ID:         s.newID(),
		Email:      email,
		Name:       p.DisplayName,
		IsVerified: true,
	}
	u.SetProviderID(provider, p.ID)
	if photo := p.PrimaryPhoto(); photo != "" {
		u.ProfilePicture = &photo
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	metrics.UsersCreated.WithLabelValues(provider).Inc()
	logger.Infof("created user %s via %s", u.ID, provider)
	return u, nil
}

func (s *Service) link(ctx context.Context, provider string, u *models.User, p *oauth.Profile) (*models.User, error) {
	providerID := p.ID
	if u.ProviderID(provider) == providerID {
		return u, nil
	}
	// an unverified email proves nothing about ownership of the existing account
	if p.EmailUnverified {
		return nil, fmt.Errorf("%s id %s for %s: %w", provider, providerID, u.Email, ErrEmailNotVerified)
	}
	if u.ProviderID(provider) != "" {
		// never overwrite an id that is already set
		return u, nil
	}
	if s.linkPolicy == LinkOAuthOnly && u.HasPassword() {
		return nil, ErrLinkNotAllowed
	}
	updated, err := s.repo.AttachProviderID(ctx, u.ID, provider, providerID)
	if err != nil {
		return nil, fmt.Errorf("attach %s id: %w", provider, err)
	}
	fresh, err := s.repo.FindByID(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	if fresh == nil {
		return nil, fmt.Errorf("user %s disappeared during linking", u.ID)
	}
	if updated {
		logger.Infof("linked %s id to user %s", provider, u.ID)
	}
	return fresh, nil
}

// GetByID returns the user or (nil, nil) when it does not exist.
func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, nil
	}
	return s.repo.FindByID(ctx, id)
}

// Register creates a password account.
func (s *Service) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if name == "" || !strings.Contains(email, "@") || len(password) < minPasswordLen {
		return nil, ErrInvalidInput
	}
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	h := string(hash)
	u := &models.User{ID: s.newID(), Email: email, Name: name, PasswordHash: &h}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	metrics.UsersCreated.WithLabelValues("password").Inc()
	return u, nil
}

// Authenticate checks an email/password pair. OAuth-only accounts never match.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if u == nil || !u.HasPassword() {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
