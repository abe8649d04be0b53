package model

import "time"

const (
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
	DefaultCover  = "https://picsum.photos/seed/default/300/300"
)

// Track represents a playable song, whatever source it came from.
// The JSON layout is also the on-disk layout of the recently played blob.
type Track struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id,omitempty"` // owner, empty for local and built-in tracks
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	Duration    int    `json:"duration"` // seconds, 0 = unknown
	CoverURL    string `json:"coverUrl"`
	AudioURL    string `json:"audioUrl"`
	IsLocal     bool   `json:"isLocal,omitempty"`
	IsPublic    bool   `json:"isPublic,omitempty"`
	TrackNumber int    `json:"trackNumber,omitempty"` // album ordering, 0 = none
}

// SameAs reports whether both tracks point at the same identifier.
// A nil track only matches another nil track.
func (t *Track) SameAs(other *Track) bool {
	if t == nil || other == nil {
		return t == nil && other == nil
	}
	return t.ID == other.ID
}

// Clone returns a detached copy, nil stays nil.
func (t *Track) Clone() *Track {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// TrackFields are the metadata fields an owner may edit.
type TrackFields struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
}

// Apply copies the edited fields onto the track.
func (f TrackFields) Apply(t Track) Track {
	t.Title = f.Title
	t.Artist = f.Artist
	t.Album = f.Album
	return t
}

// SongRecord is the row stored in the remote songs table.
type SongRecord struct {
	ID          string    `gorm:"primaryKey;size:36"`
	UserID      string    `gorm:"size:36;index;not null"`
	Title       string    `gorm:"size:255;not null"`
	Artist      string    `gorm:"size:255"`
	Album       string    `gorm:"size:255;index"`
	Duration    int       `gorm:"default:0"`
	CoverURL    string    `gorm:"size:1024"`
	AudioURL    string    `gorm:"size:1024"`
	AudioPath   string    `gorm:"size:512"` // object key inside the bucket
	IsPublic    bool      `gorm:"default:false;index"`
	TrackNumber int       `gorm:"default:0"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

// TableName 指定表名
func (SongRecord) TableName() string {
	return "songs"
}

// ToTrack converts a row to a Track, filling the defaults the UI expects.
func (r *SongRecord) ToTrack() Track {
	t := Track{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Artist:      r.Artist,
		Album:       r.Album,
		Duration:    r.Duration,
		CoverURL:    r.CoverURL,
		AudioURL:    r.AudioURL,
		IsPublic:    r.IsPublic,
		TrackNumber: r.TrackNumber,
	}
	if t.Artist == "" {
		t.Artist = UnknownArtist
	}
	if t.Album == "" {
		t.Album = UnknownAlbum
	}
	if t.CoverURL == "" {
		t.CoverURL = DefaultCover
	}
	return t
}

// LikedSong links a user to a song they liked.
type LikedSong struct {
	UserID    string    `gorm:"primaryKey;size:36"`
	SongID    string    `gorm:"primaryKey;size:36"`
	CreatedAt time.Time `gorm:"index"`
}

// TableName 指定表名
func (LikedSong) TableName() string {
	return "liked_songs"
}
