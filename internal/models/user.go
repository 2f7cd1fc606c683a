package models

import "time"

// Provider names used for the OAuth strategies and the matching user columns.
const (
	ProviderGoogle   = "google"
	ProviderLinkedIn = "linkedin"
)

// User is the identity record shared by OAuth and password accounts.
// Email is unique across all providers.
type User struct {
	ID             string    `gorm:"column:id;primaryKey" json:"id"`
	Email          string    `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Name           string    `gorm:"column:name" json:"name"`
	GoogleID       *string   `gorm:"column:google_id;uniqueIndex" json:"googleId,omitempty"`
	LinkedInID     *string   `gorm:"column:linkedin_id;uniqueIndex" json:"linkedinId,omitempty"`
	IsVerified     bool      `gorm:"column:is_verified;not null;default:false" json:"isVerified"`
	ProfilePicture *string   `gorm:"column:profile_picture" json:"profilePicture,omitempty"`
	PasswordHash   *string   `gorm:"column:password_hash" json:"-"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName pins the table name used by the migrations.
func (User) TableName() string { return "users" }

// ProviderID returns the provider subject stored for the given provider, or "".
func (u *User) ProviderID(provider string) string {
	var p *string
	switch provider {
	case ProviderGoogle:
		p = u.GoogleID
	case ProviderLinkedIn:
		p = u.LinkedInID
	}
	if p == nil {
		return ""
	}
	return *p
}

// SetProviderID sets the provider subject column for the given provider.
func (u *User) SetProviderID(provider, id string) {
	switch provider {
	case ProviderGoogle:
		u.GoogleID = &id
	case ProviderLinkedIn:
		u.LinkedInID = &id
	}
}

// HasPassword reports whether the account was created with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
