package models

import "time"

// Post is an image post owned by a user and scoped under that user's profile.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID" json:"user"`
	ProfileID   uint      `gorm:"not null;index" json:"profile_id"`
	Image       string    `gorm:"not null" json:"image"`
	Description string    `gorm:"type:text" json:"description"`
	Tags        []Tag     `gorm:"many2many:post_tags;" json:"tags,omitempty"`
	Likes       []Like    `gorm:"foreignKey:PostID" json:"likes,omitempty"`
	Comments    []Comment `gorm:"foreignKey:PostID" json:"comments,omitempty"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->;-:migration" json:"comments_count"`
	// CreatedAt is write-once.
	CreatedAt time.Time `gorm:"<-:create" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tag is a free-text label. Names are not unique.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;index" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
