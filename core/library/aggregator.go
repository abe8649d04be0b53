package library

import (
	"strings"
	"sync"

	"Zenith/model"

	"github.com/samber/lo"
)

// Reserved selectors for the built-in sources.
const (
	SelectLiked    = "liked"
	SelectLocal    = "local"
	SelectCloud    = "cloud"
	SelectDiscover = "discover"
	SelectRecent   = "recently-played"
)

// EmptyCollectionID is the id of the placeholder returned when nothing matches.
const EmptyCollectionID = "empty"

// Sources is an immutable snapshot of every track source the player knows about.
type Sources struct {
	Cloud     []model.Track
	Local     []model.Track
	Liked     []model.Track
	Public    []model.Track
	Recent    []model.Track
	Playlists []model.Collection
}

// ResolveActive maps a selector onto exactly one collection.
// It never mutates its inputs.
func ResolveActive(selector string, src Sources, albums []model.Collection) model.Collection {
	switch selector {
	case SelectLiked:
		return model.Collection{ID: SelectLiked, Name: "Liked Songs", Description: "Your favorite tracks.", Tracks: src.Liked, Type: model.CollectionLiked}
	case SelectLocal:
		return model.Collection{ID: SelectLocal, Name: "Local Files", Description: "Music from your device.", Tracks: src.Local, Type: model.CollectionLocal}
	case SelectCloud:
		return model.Collection{ID: SelectCloud, Name: "My Uploads", Description: "Your uploaded music.", Tracks: src.Cloud, Type: model.CollectionPlaylist}
	case SelectDiscover:
		return model.Collection{ID: SelectDiscover, Name: "Discover", Description: "Public songs from the community.", Tracks: src.Public, Type: model.CollectionPlaylist}
	case SelectRecent:
		return model.Collection{ID: SelectRecent, Name: "Recently Played", Description: "Your listening history.", Tracks: src.Recent, Type: model.CollectionPlaylist}
	}

	if strings.HasPrefix(selector, AlbumPrefix) {
		if album, ok := lo.Find(albums, func(c model.Collection) bool { return c.ID == selector }); ok {
			return album
		}
	}

	if p, ok := lo.Find(src.Playlists, func(c model.Collection) bool { return c.ID == selector }); ok {
		return p
	}
	if len(src.Playlists) > 0 {
		return src.Playlists[0]
	}
	return model.Collection{ID: EmptyCollectionID, Name: "No Playlist", Type: model.CollectionPlaylist}
}

// Aggregator owns the track sources and the selected collection id.
// Derived views (album index, active collection) are recomputed lazily and
// memoized on the source version, so repeated reads between mutations are free.
type Aggregator struct {
	mu       sync.RWMutex
	src      Sources
	selected string
	version  uint64

	albumsVersion uint64
	albums        []model.Collection
	activeVersion uint64
	activeFor     string
	active        model.Collection
}

// NewAggregator creates an aggregator with the cloud uploads selected.
func NewAggregator() *Aggregator {
	// version starts at 1 so the zero memo versions are always stale
	return &Aggregator{selected: SelectCloud, version: 1}
}

func (a *Aggregator) mutate(fn func(src *Sources)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(&a.src)
	a.version++
}

func copyTracks(tracks []model.Track) []model.Track {
	out := make([]model.Track, len(tracks))
	copy(out, tracks)
	return out
}

// SetCloud replaces the user's uploads.
func (a *Aggregator) SetCloud(tracks []model.Track) {
	a.mutate(func(src *Sources) { src.Cloud = copyTracks(tracks) })
}

// PrependCloud adds freshly uploaded tracks in front of the uploads.
func (a *Aggregator) PrependCloud(tracks ...model.Track) {
	a.mutate(func(src *Sources) { src.Cloud = append(copyTracks(tracks), src.Cloud...) })
}

// SetLocal replaces the session-local imports.
func (a *Aggregator) SetLocal(tracks []model.Track) {
	a.mutate(func(src *Sources) { src.Local = copyTracks(tracks) })
}

// ImportLocal prepends newly imported local tracks, skipping ids already known.
// It returns the tracks that were actually added.
func (a *Aggregator) ImportLocal(tracks []model.Track) []model.Track {
	var added []model.Track
	a.mutate(func(src *Sources) {
		known := lo.SliceToMap(src.Local, func(t model.Track) (string, struct{}) { return t.ID, struct{}{} })
		added = lo.Filter(tracks, func(t model.Track, _ int) bool {
			_, dup := known[t.ID]
			return !dup
		})
		src.Local = append(copyTracks(added), src.Local...)
	})
	return added
}

// SetLiked replaces the liked tracks.
func (a *Aggregator) SetLiked(tracks []model.Track) {
	a.mutate(func(src *Sources) { src.Liked = copyTracks(tracks) })
}

// SetPublic replaces the discover tracks.
func (a *Aggregator) SetPublic(tracks []model.Track) {
	a.mutate(func(src *Sources) { src.Public = copyTracks(tracks) })
}

// SetRecent replaces the recently played tracks.
func (a *Aggregator) SetRecent(tracks []model.Track) {
	a.mutate(func(src *Sources) { src.Recent = copyTracks(tracks) })
}

// SetPlaylists replaces the user-created playlists.
func (a *Aggregator) SetPlaylists(playlists []model.Collection) {
	a.mutate(func(src *Sources) {
		src.Playlists = lo.Map(playlists, func(p model.Collection, _ int) model.Collection {
			p.Tracks = copyTracks(p.Tracks)
			return p
		})
	})
}

// AddPlaylist appends a user-created playlist.
func (a *Aggregator) AddPlaylist(p model.Collection) {
	p.Tracks = copyTracks(p.Tracks)
	a.mutate(func(src *Sources) { src.Playlists = append(src.Playlists, p) })
}

// RemoveTrack drops a track from every source it appears in.
func (a *Aggregator) RemoveTrack(id string) {
	keep := func(t model.Track, _ int) bool { return t.ID != id }
	a.mutate(func(src *Sources) {
		src.Cloud = lo.Filter(src.Cloud, keep)
		src.Local = lo.Filter(src.Local, keep)
		src.Liked = lo.Filter(src.Liked, keep)
		src.Public = lo.Filter(src.Public, keep)
		src.Recent = lo.Filter(src.Recent, keep)
		for i := range src.Playlists {
			src.Playlists[i].Tracks = lo.Filter(src.Playlists[i].Tracks, keep)
		}
	})
}

// UpdateTracks rewrites every track matching pred in every source.
func (a *Aggregator) UpdateTracks(pred func(model.Track) bool, update func(model.Track) model.Track) {
	apply := func(tracks []model.Track) []model.Track {
		return lo.Map(tracks, func(t model.Track, _ int) model.Track {
			if pred(t) {
				return update(t)
			}
			return t
		})
	}
	a.mutate(func(src *Sources) {
		src.Cloud = apply(src.Cloud)
		src.Local = apply(src.Local)
		src.Liked = apply(src.Liked)
		src.Public = apply(src.Public)
		src.Recent = apply(src.Recent)
		for i := range src.Playlists {
			src.Playlists[i].Tracks = apply(src.Playlists[i].Tracks)
		}
	})
}

// Select changes the active collection.
func (a *Aggregator) Select(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.selected = id
}

// Selected returns the current selector.
func (a *Aggregator) Selected() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.selected
}

// Sources returns the current source snapshot. Callers must not modify it.
func (a *Aggregator) Sources() Sources {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.src
}

// Albums returns the derived album index.
func (a *Aggregator) Albums() []model.Collection {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.albumsLocked()
}

func (a *Aggregator) albumsLocked() []model.Collection {
	if a.albumsVersion != a.version {
		a.albums = BuildAlbumIndex(a.src.Cloud, a.src.Local, a.src.Public, a.src.Recent, a.src.Liked)
		a.albumsVersion = a.version
	}
	return a.albums
}

// ActiveCollection resolves the selected collection against the current sources.
func (a *Aggregator) ActiveCollection() model.Collection {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.activeVersion != a.version || a.activeFor != a.selected {
		a.active = ResolveActive(a.selected, a.src, a.albumsLocked())
		a.activeVersion = a.version
		a.activeFor = a.selected
	}
	return a.active
}

// AllTracks returns the searchable library: uploads followed by local files.
func (a *Aggregator) AllTracks() []model.Track {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]model.Track, 0, len(a.src.Cloud)+len(a.src.Local))
	out = append(out, a.src.Cloud...)
	return append(out, a.src.Local...)
}

// FindTrack looks a track up by id across every source.
func (a *Aggregator) FindTrack(id string) (model.Track, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, tracks := range [][]model.Track{a.src.Cloud, a.src.Local, a.src.Liked, a.src.Public, a.src.Recent} {
		if t, ok := lo.Find(tracks, func(t model.Track) bool { return t.ID == id }); ok {
			return t, true
		}
	}
	for _, p := range a.src.Playlists {
		if t, ok := lo.Find(p.Tracks, func(t model.Track) bool { return t.ID == id }); ok {
			return t, true
		}
	}
	return model.Track{}, false
}
