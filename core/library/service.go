package library

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"Zenith/logger"
	"Zenith/model"
)

var (
	ErrAuthRequired = errors.New("authentication required")
	ErrNotFound     = errors.New("song not found")
	ErrEmptyAlbum   = errors.New("album has no songs")
)

// File is an in-memory file picked by the user.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Upload describes one song to create in the remote store.
type Upload struct {
	File        File
	Fields      model.TrackFields
	Duration    int
	CoverURL    string
	TrackNumber int
}

// AlbumSong is one entry of an album upload.
type AlbumSong struct {
	File  File
	Title string
}

// AlbumUpload creates several songs sharing album, artist and cover.
type AlbumUpload struct {
	Title  string
	Artist string
	Cover  *File
	Songs  []AlbumSong
}

// SongStore is the remote song store.
type SongStore interface {
	ListOwned(ctx context.Context, userID string) ([]model.Track, error)
	ListPublic(ctx context.Context) ([]model.Track, error)
	Create(ctx context.Context, userID string, up Upload) (*model.Track, error)
	Update(ctx context.Context, id string, fields model.TrackFields) error
	Delete(ctx context.Context, id string) error
	SetVisibility(ctx context.Context, id string, public bool) error
	UploadCover(ctx context.Context, userID string, cover File) (string, error)
	SetCover(ctx context.Context, ids []string, coverURL string) error
}

// LikedStore is the remote liked-songs store.
type LikedStore interface {
	List(ctx context.Context, userID string) ([]model.Track, error)
	Add(ctx context.Context, userID, trackID string) error
	Remove(ctx context.Context, userID, trackID string) error
}

// Identity exposes the signed-in user, nil when signed out.
type Identity interface {
	CurrentUser() *model.User
}

// Player is the part of the playback session the library drives.
type Player interface {
	Play(t model.Track)
	Current() *model.Track
	TrackRemoved(id string)
	RefreshCurrent(t model.Track)
}

// DurationProbe returns the length in seconds of an audio payload, 0 if unknown.
type DurationProbe func(name string, data []byte) int

// Service runs the user-facing library operations against the remote stores
// and mirrors confirmed results into the aggregator.
type Service struct {
	agg      *Aggregator
	songs    SongStore
	liked    LikedStore
	identity Identity
	player   Player
	notifier model.Notifier
	probe    DurationProbe

	// OnAuthRequired is called whenever an operation needs a signed-in user.
	OnAuthRequired func()

	mu       sync.RWMutex
	likedIDs map[string]struct{}
}

// NewService wires the library operations. probe may be nil.
func NewService(agg *Aggregator, songs SongStore, liked LikedStore, identity Identity, player Player, notifier model.Notifier, probe DurationProbe) *Service {
	return &Service{
		agg:      agg,
		songs:    songs,
		liked:    liked,
		identity: identity,
		player:   player,
		notifier: notifier,
		probe:    probe,
		likedIDs: make(map[string]struct{}),
	}
}

// Aggregator returns the collection aggregator the service feeds.
func (s *Service) Aggregator() *Aggregator { return s.agg }

func (s *Service) user() *model.User {
	if s.identity == nil {
		return nil
	}
	return s.identity.CurrentUser()
}

// requireUser returns the signed-in user or signals that authentication is needed.
func (s *Service) requireUser() (*model.User, error) {
	u := s.user()
	if u == nil {
		if s.OnAuthRequired != nil {
			s.OnAuthRequired()
		}
		return nil, ErrAuthRequired
	}
	return u, nil
}

// Refresh reloads the remote sources. Signed out users only see public songs.
func (s *Service) Refresh(ctx context.Context) error {
	public, err := s.songs.ListPublic(ctx)
	if err != nil {
		logger.Error("加载公开歌曲失败", logger.ErrorField(err))
		return fmt.Errorf("failed to list public songs: %w", err)
	}
	s.agg.SetPublic(public)

	u := s.user()
	if u == nil {
		s.agg.SetCloud(nil)
		s.agg.SetLiked(nil)
		s.setLikedIDs(nil)
		return nil
	}

	owned, err := s.songs.ListOwned(ctx, u.ID)
	if err != nil {
		logger.Error("加载用户歌曲失败", logger.String("userId", u.ID), logger.ErrorField(err))
		return fmt.Errorf("failed to list songs: %w", err)
	}
	s.agg.SetCloud(owned)

	liked, err := s.liked.List(ctx, u.ID)
	if err != nil {
		logger.Error("加载收藏失败", logger.String("userId", u.ID), logger.ErrorField(err))
		return fmt.Errorf("failed to list liked songs: %w", err)
	}
	s.agg.SetLiked(liked)
	s.setLikedIDs(liked)

	logger.Info("曲库已刷新",
		logger.String("userId", u.ID),
		logger.Int("owned", len(owned)),
		logger.Int("liked", len(liked)),
		logger.Int("public", len(public)))
	return nil
}

func (s *Service) setLikedIDs(tracks []model.Track) {
	ids := make(map[string]struct{}, len(tracks))
	for _, t := range tracks {
		ids[t.ID] = struct{}{}
	}
	s.mu.Lock()
	s.likedIDs = ids
	s.mu.Unlock()
}

// IsLiked reports whether the signed-in user liked the track.
func (s *Service) IsLiked(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.likedIDs[id]
	return ok
}

// ToggleLike adds or removes t from the liked songs.
func (s *Service) ToggleLike(ctx context.Context, t model.Track) error {
	u, err := s.requireUser()
	if err != nil {
		return err
	}

	if s.IsLiked(t.ID) {
		if err := s.liked.Remove(ctx, u.ID, t.ID); err != nil {
			logger.Error("取消收藏失败", logger.String("trackId", t.ID), logger.ErrorField(err))
			s.notifier.Notify(model.NoticeError, "Failed to update liked songs")
			return fmt.Errorf("failed to unlike song: %w", err)
		}
		s.mu.Lock()
		delete(s.likedIDs, t.ID)
		s.mu.Unlock()
		liked := s.agg.Sources().Liked
		kept := make([]model.Track, 0, len(liked))
		for _, x := range liked {
			if x.ID != t.ID {
				kept = append(kept, x)
			}
		}
		s.agg.SetLiked(kept)
		return nil
	}

	if err := s.liked.Add(ctx, u.ID, t.ID); err != nil {
		logger.Error("收藏失败", logger.String("trackId", t.ID), logger.ErrorField(err))
		s.notifier.Notify(model.NoticeError, "Failed to update liked songs")
		return fmt.Errorf("failed to like song: %w", err)
	}
	s.mu.Lock()
	s.likedIDs[t.ID] = struct{}{}
	s.mu.Unlock()
	s.agg.SetLiked(append([]model.Track{t}, s.agg.Sources().Liked...))
	return nil
}

func titleFromFileName(name string) string {
	return strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
}

func (s *Service) duration(f File) int {
	if s.probe == nil {
		return 0
	}
	return s.probe(f.Name, f.Data)
}

// Upload creates a song owned by the signed-in user, plays it and shows the uploads.
func (s *Service) Upload(ctx context.Context, f File, fields model.TrackFields) (*model.Track, error) {
	u, err := s.requireUser()
	if err != nil {
		return nil, err
	}

	if fields.Title == "" {
		fields.Title = titleFromFileName(f.Name)
	}
	if fields.Artist == "" {
		fields.Artist = u.ArtistName()
	}
	if fields.Album == "" {
		fields.Album = model.UnknownAlbum
	}

	t, err := s.songs.Create(ctx, u.ID, Upload{
		File:     f,
		Fields:   fields,
		Duration: s.duration(f),
		CoverURL: "https://picsum.photos/seed/upload/300/300",
	})
	if err != nil {
		logger.Error("上传歌曲失败", logger.String("file", f.Name), logger.ErrorField(err))
		s.notifier.Notify(model.NoticeError, "Failed to upload song")
		return nil, fmt.Errorf("failed to upload song: %w", err)
	}

	s.agg.PrependCloud(*t)
	s.player.Play(*t)
	s.agg.Select(SelectCloud)
	return t, nil
}

// UploadAlbum uploads the cover and every song, numbering tracks from 1.
// Songs that fail are skipped, the album fails only if none succeeded.
func (s *Service) UploadAlbum(ctx context.Context, album AlbumUpload) ([]model.Track, error) {
	u, err := s.requireUser()
	if err != nil {
		return nil, err
	}
	if len(album.Songs) == 0 {
		return nil, ErrEmptyAlbum
	}

	coverURL := "https://picsum.photos/seed/" + url.PathEscape(album.Title) + "/300/300"
	if album.Cover != nil {
		uploaded, err := s.songs.UploadCover(ctx, u.ID, *album.Cover)
		if err != nil {
			logger.Warn("上传专辑封面失败，使用默认封面", logger.String("album", album.Title), logger.ErrorField(err))
		} else {
			coverURL = uploaded
		}
	}

	albumName := album.Title
	if albumName == "" {
		albumName = model.UnknownAlbum
	}
	artist := album.Artist
	if artist == "" {
		artist = u.ArtistName()
	}

	var created []model.Track
	for i, song := range album.Songs {
		title := song.Title
		if title == "" {
			title = titleFromFileName(song.File.Name)
		}
		t, err := s.songs.Create(ctx, u.ID, Upload{
			File:        song.File,
			Fields:      model.TrackFields{Title: title, Artist: artist, Album: albumName},
			Duration:    s.duration(song.File),
			CoverURL:    coverURL,
			TrackNumber: i + 1,
		})
		if err != nil {
			logger.Error("上传专辑歌曲失败",
				logger.String("album", albumName),
				logger.Int("trackNumber", i+1),
				logger.ErrorField(err))
			continue
		}
		created = append(created, *t)
	}

	if len(created) == 0 {
		s.notifier.Notify(model.NoticeError, "Failed to create album")
		return nil, fmt.Errorf("failed to create album %q: no song uploaded", albumName)
	}

	s.agg.PrependCloud(created...)
	s.agg.Select(SelectCloud)
	s.notifier.Notify(model.NoticeSuccess, "Album created successfully!")
	return created, nil
}

// Delete removes a song remotely, then everywhere locally.
// Deleting the current track returns the session to Idle.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.requireUser(); err != nil {
		return err
	}
	if err := s.songs.Delete(ctx, id); err != nil {
		logger.Error("删除歌曲失败", logger.String("trackId", id), logger.ErrorField(err))
		s.notifier.Notify(model.NoticeError, "Failed to delete song")
		return fmt.Errorf("failed to delete song: %w", err)
	}

	s.agg.RemoveTrack(id)
	s.mu.Lock()
	delete(s.likedIDs, id)
	s.mu.Unlock()
	s.player.TrackRemoved(id)
	s.notifier.Notify(model.NoticeSuccess, "Song deleted")
	return nil
}

// Edit updates title, artist and album of a song.
func (s *Service) Edit(ctx context.Context, id string, fields model.TrackFields) error {
	if _, err := s.requireUser(); err != nil {
		return err
	}
	if err := s.songs.Update(ctx, id, fields); err != nil {
		logger.Error("更新歌曲失败", logger.String("trackId", id), logger.ErrorField(err))
		s.notifier.Notify(model.NoticeError, "Failed to update song")
		return fmt.Errorf("failed to update song: %w", err)
	}

	s.agg.UpdateTracks(
		func(t model.Track) bool { return t.ID == id },
		fields.Apply,
	)
	if cur := s.player.Current(); cur != nil && cur.ID == id {
		s.player.RefreshCurrent(fields.Apply(*cur))
	}
	s.notifier.Notify(model.NoticeSuccess, "Song updated")
	return nil
}

// SetVisibility publishes or hides a song on the discover page.
func (s *Service) SetVisibility(ctx context.Context, id string, public bool) error {
	if _, err := s.requireUser(); err != nil {
		return err
	}
	if err := s.songs.SetVisibility(ctx, id, public); err != nil {
		logger.Error("更新歌曲可见性失败", logger.String("trackId", id), logger.ErrorField(err))
		s.notifier.Notify(model.NoticeError, "Failed to update visibility")
		return fmt.Errorf("failed to set visibility: %w", err)
	}

	s.agg.UpdateTracks(
		func(t model.Track) bool { return t.ID == id },
		func(t model.Track) model.Track { t.IsPublic = public; return t },
	)
	// the discover page is rebuilt from the store
	if public, err := s.songs.ListPublic(ctx); err == nil {
		s.agg.SetPublic(public)
	} else {
		logger.Warn("刷新公开歌曲失败", logger.ErrorField(err))
	}
	return nil
}

// UpdateCover uploads a new cover and applies it to one song, or to every
// song of its album when wholeAlbum is set.
func (s *Service) UpdateCover(ctx context.Context, trackID string, cover File, wholeAlbum bool) (string, error) {
	u, err := s.requireUser()
	if err != nil {
		return "", err
	}
	target, ok := s.agg.FindTrack(trackID)
	if !ok {
		return "", ErrNotFound
	}

	match := func(t model.Track) bool { return t.ID == trackID }
	if wholeAlbum {
		match = func(t model.Track) bool { return t.Album == target.Album }
	}

	coverURL, err := s.songs.UploadCover(ctx, u.ID, cover)
	if err != nil {
		logger.Error("上传封面失败", logger.String("trackId", trackID), logger.ErrorField(err))
		s.notifier.Notify(model.NoticeError, "Failed to update cover")
		return "", fmt.Errorf("failed to upload cover: %w", err)
	}

	var ids []string
	for _, t := range s.agg.Sources().Cloud {
		if match(t) {
			ids = append(ids, t.ID)
		}
	}
	if len(ids) > 0 {
		if err := s.songs.SetCover(ctx, ids, coverURL); err != nil {
			logger.Error("保存封面失败", logger.Int("songs", len(ids)), logger.ErrorField(err))
			s.notifier.Notify(model.NoticeError, "Failed to update cover")
			return "", fmt.Errorf("failed to save cover: %w", err)
		}
	}

	s.agg.UpdateTracks(match, func(t model.Track) model.Track { t.CoverURL = coverURL; return t })
	if cur := s.player.Current(); cur != nil && match(*cur) {
		cur.CoverURL = coverURL
		s.player.RefreshCurrent(*cur)
	}
	return coverURL, nil
}

// ImportLocal adds session-local tracks, plays the first and shows local files.
func (s *Service) ImportLocal(tracks []model.Track) []model.Track {
	added := s.agg.ImportLocal(tracks)
	if len(tracks) > 0 {
		s.player.Play(tracks[0])
		s.agg.Select(SelectLocal)
	}
	return added
}

// AddToLibrary likes t when signed in, plays it and shows the liked songs.
func (s *Service) AddToLibrary(ctx context.Context, t model.Track) {
	if s.user() != nil && !s.IsLiked(t.ID) {
		if err := s.ToggleLike(ctx, t); err != nil {
			logger.Warn("添加到曲库失败", logger.String("trackId", t.ID), logger.ErrorField(err))
		}
	}
	s.player.Play(t)
	s.agg.Select(SelectLiked)
}
