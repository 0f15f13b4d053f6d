// Package models contains data structures for the application's domain models.
package models

import "time"

// User is the account row owned by the identity gateway. The social core only
// reads it: username for display and filtering, IsStaff for the staff bypass.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	IsStaff   bool      `gorm:"not null;default:false" json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
}
