package models

import "time"

// Profile is the social identity wrapping a user account.
// Exactly one profile exists per user; the unique index on UserID is the
// source of truth for that rule.
type Profile struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	UserID         uint   `gorm:"not null;uniqueIndex:idx_profiles_user" json:"user_id"`
	User           User   `gorm:"foreignKey:UserID" json:"user"`
	Bio            string `gorm:"type:text" json:"bio"`
	ProfilePicture string `json:"profile_picture,omitempty"`

	// Followers and Following are the two sides of the follow graph. They are
	// only ever mutated together, inside one transaction.
	Followers []User `gorm:"many2many:profile_followers;" json:"followers,omitempty"`
	Following []User `gorm:"many2many:profile_following;" json:"following,omitempty"`

	Posts []Post `gorm:"foreignKey:ProfileID" json:"posts,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Username returns the owning user's name, or "" when User was not loaded.
func (p *Profile) Username() string {
	return p.User.Username
}
