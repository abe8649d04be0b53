package model

import "time"

// User represents a registered listener.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Email        string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	DisplayName  string    `json:"displayName,omitempty" gorm:"size:100"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Not exposed in API responses
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// ArtistName is the name used as artist for the user's own uploads.
func (u *User) ArtistName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	for i, c := range u.Email {
		if c == '@' {
			return u.Email[:i]
		}
	}
	if u.Email != "" {
		return u.Email
	}
	return UnknownArtist
}
