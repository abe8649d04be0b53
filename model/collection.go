package model

// CollectionType distinguishes the semantics of a collection.
type CollectionType string

const (
	CollectionPlaylist CollectionType = "playlist"
	CollectionLiked    CollectionType = "liked"
	CollectionLocal    CollectionType = "local"
)

// Collection is a named ordered list of tracks (a "playlist" in the UI).
// Order matters: it drives sequential next/previous.
type Collection struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	CoverURL    string         `json:"coverUrl"`
	Tracks      []Track        `json:"songs"`
	Type        CollectionType `json:"type,omitempty"`
}

// Len returns the number of tracks.
func (c Collection) Len() int {
	return len(c.Tracks)
}

// IndexOf returns the position of the track with the given id, or -1.
func (c Collection) IndexOf(id string) int {
	for i := range c.Tracks {
		if c.Tracks[i].ID == id {
			return i
		}
	}
	return -1
}
