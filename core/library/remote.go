package library

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"Zenith/logger"
	"Zenith/model"
	"Zenith/repository"
	"Zenith/storage"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// PublicListLimit caps the discover page.
const PublicListLimit = 200

// RemoteStore is the SongStore backed by the songs table and the object store.
type RemoteStore struct {
	tracks  repository.TrackRepository
	objects storage.ObjectStore
	now     func() time.Time
}

// NewRemoteStore creates a RemoteStore.
func NewRemoteStore(tracks repository.TrackRepository, objects storage.ObjectStore) *RemoteStore {
	return &RemoteStore{tracks: tracks, objects: objects, now: time.Now}
}

func toTracks(recs []*model.SongRecord) []model.Track {
	return lo.Map(recs, func(r *model.SongRecord, _ int) model.Track { return r.ToTrack() })
}

// objectKey builds "<user>/<millis>-<rand>.<ext>" or "<user>/covers/..." for covers.
func (s *RemoteStore) objectKey(userID, dir, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	name := fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), uuid.NewString()[:8], ext)
	if dir == "" {
		return userID + "/" + name
	}
	return userID + "/" + dir + "/" + name
}

// ListOwned implements SongStore.
func (s *RemoteStore) ListOwned(ctx context.Context, userID string) ([]model.Track, error) {
	recs, err := s.tracks.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toTracks(recs), nil
}

// ListPublic implements SongStore.
func (s *RemoteStore) ListPublic(ctx context.Context) ([]model.Track, error) {
	recs, err := s.tracks.ListPublic(ctx, PublicListLimit)
	if err != nil {
		return nil, err
	}
	return toTracks(recs), nil
}

// Create uploads the audio file, then inserts the row.
// The object is removed again if the insert fails.
func (s *RemoteStore) Create(ctx context.Context, userID string, up Upload) (*model.Track, error) {
	key := s.objectKey(userID, "", up.File.Name)
	if err := s.objects.Put(ctx, key, up.File.ContentType, up.File.Data); err != nil {
		return nil, err
	}

	rec := &model.SongRecord{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       up.Fields.Title,
		Artist:      up.Fields.Artist,
		Album:       up.Fields.Album,
		Duration:    up.Duration,
		CoverURL:    up.CoverURL,
		AudioURL:    s.objects.PublicURL(key),
		AudioPath:   key,
		TrackNumber: up.TrackNumber,
	}
	if err := s.tracks.Create(ctx, rec); err != nil {
		if rmErr := s.objects.Remove(ctx, key); rmErr != nil {
			logger.Warn("清理上传文件失败", logger.String("key", key), logger.ErrorField(rmErr))
		}
		return nil, fmt.Errorf("failed to insert song: %w", err)
	}

	t := rec.ToTrack()
	return &t, nil
}

// Update implements SongStore.
func (s *RemoteStore) Update(ctx context.Context, id string, fields model.TrackFields) error {
	return s.tracks.UpdateFields(ctx, id, fields)
}

// Delete removes the row, then the audio object. A leftover object is only logged.
func (s *RemoteStore) Delete(ctx context.Context, id string) error {
	rec, err := s.tracks.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrNotFound
	}
	if err := s.tracks.Delete(ctx, id); err != nil {
		return err
	}
	if rec.AudioPath != "" {
		if err := s.objects.Remove(ctx, rec.AudioPath); err != nil {
			logger.Warn("删除音频文件失败", logger.String("key", rec.AudioPath), logger.ErrorField(err))
		}
	}
	return nil
}

// SetVisibility implements SongStore.
func (s *RemoteStore) SetVisibility(ctx context.Context, id string, public bool) error {
	return s.tracks.SetVisibility(ctx, id, public)
}

// UploadCover stores an image and returns its public URL.
func (s *RemoteStore) UploadCover(ctx context.Context, userID string, cover File) (string, error) {
	key := s.objectKey(userID, "covers", cover.Name)
	if err := s.objects.Put(ctx, key, cover.ContentType, cover.Data); err != nil {
		return "", err
	}
	return s.objects.PublicURL(key), nil
}

// SetCover implements SongStore.
func (s *RemoteStore) SetCover(ctx context.Context, ids []string, coverURL string) error {
	return s.tracks.SetCover(ctx, ids, coverURL)
}

// RemoteLiked is the LikedStore backed by the liked_songs table.
type RemoteLiked struct {
	liked repository.LikedRepository
}

// NewRemoteLiked creates a RemoteLiked.
func NewRemoteLiked(liked repository.LikedRepository) *RemoteLiked {
	return &RemoteLiked{liked: liked}
}

// List implements LikedStore.
func (l *RemoteLiked) List(ctx context.Context, userID string) ([]model.Track, error) {
	recs, err := l.liked.ListSongs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toTracks(recs), nil
}

// Add implements LikedStore.
func (l *RemoteLiked) Add(ctx context.Context, userID, trackID string) error {
	return l.liked.Add(ctx, userID, trackID)
}

// Remove implements LikedStore.
func (l *RemoteLiked) Remove(ctx context.Context, userID, trackID string) error {
	return l.liked.Remove(ctx, userID, trackID)
}

var (
	_ SongStore  = (*RemoteStore)(nil)
	_ LikedStore = (*RemoteLiked)(nil)
)
