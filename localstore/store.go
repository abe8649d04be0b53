// Package localstore persists small JSON blobs on the listener's machine.
// Missing or unreadable blobs always fall back to defaults.
package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"Zenith/logger"
	"Zenith/model"

	"go.etcd.io/bbolt"
)

const (
	RecentKey   = "zenith-recently-played"
	SettingsKey = "zenith-settings"
	SessionKey  = "zenith-session"
	AuthKey     = "zenith-auth"
	SnapshotKey = "zenith-bridge-snapshot"
	PlaylistKey = "zenith-playlists"
)

var blobBucket = []byte("blobs")

// Store is a bbolt file holding one bucket of JSON values.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("could not create data dir: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open bbolt database: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blobBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create blob bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying file.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetJSON decodes the blob under key into v.
// It reports false when the key is missing or the blob is corrupt; v is then untouched.
func (s *Store) GetJSON(key string, v interface{}) bool {
	var raw []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if data := tx.Bucket(blobBucket).Get([]byte(key)); data != nil {
			raw = append([]byte(nil), data...)
		}
		return nil
	})
	if err != nil {
		logger.Warn("读取本地数据失败", logger.String("key", key), logger.ErrorField(err))
		return false
	}
	if raw == nil {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		logger.Warn("本地数据损坏，使用默认值", logger.String("key", key), logger.ErrorField(err))
		return false
	}
	return true
}

// PutJSON stores v as JSON under key.
func (s *Store) PutJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("error serializing %s: %w", key, err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(blobBucket).Put([]byte(key), data)
	})
}

// PutRaw stores data under key without validation.
func (s *Store) PutRaw(key string, data []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(blobBucket).Put([]byte(key), data)
	})
}

// Delete removes key.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(blobBucket).Delete([]byte(key))
	})
}

// LoadRecent returns the recently played list, empty if nothing valid is stored.
func (s *Store) LoadRecent() []model.Track {
	var tracks []model.Track
	if !s.GetJSON(RecentKey, &tracks) {
		return nil
	}
	return tracks
}

// SaveRecent persists the recently played list.
func (s *Store) SaveRecent(tracks []model.Track) error {
	return s.PutJSON(RecentKey, tracks)
}

// LoadPlaylists returns the user-created playlists.
func (s *Store) LoadPlaylists() []model.Collection {
	var playlists []model.Collection
	if !s.GetJSON(PlaylistKey, &playlists) {
		return nil
	}
	return playlists
}

// SavePlaylists persists the user-created playlists.
func (s *Store) SavePlaylists(playlists []model.Collection) error {
	return s.PutJSON(PlaylistKey, playlists)
}

// SessionState is what a surface restores on start.
type SessionState struct {
	Current  *model.Track     `json:"currentTrack"`
	Shuffle  bool             `json:"shuffle"`
	Repeat   model.RepeatMode `json:"repeat"`
	Volume   float64          `json:"volume"`
	Muted    bool             `json:"muted"`
	Selected string           `json:"selectedPlaylist"`
}

// LoadSession returns the saved session or a fresh one.
func (s *Store) LoadSession() SessionState {
	st := SessionState{Repeat: model.RepeatOff, Volume: 0.7}
	if !s.GetJSON(SessionKey, &st) {
		return SessionState{Repeat: model.RepeatOff, Volume: 0.7}
	}
	if !st.Repeat.Valid() {
		st.Repeat = model.RepeatOff
	}
	return st
}

// SaveSession persists st.
func (s *Store) SaveSession(st SessionState) error {
	return s.PutJSON(SessionKey, st)
}

// LoadSnapshot lets a bridge without Redis keep its snapshot on disk.
func (s *Store) LoadSnapshot(context.Context) (model.Snapshot, error) {
	var snap model.Snapshot
	if !s.GetJSON(SnapshotKey, &snap) {
		return model.Snapshot{}, nil
	}
	if snap.CurrentTrack == nil {
		snap.IsPlaying = false
	}
	return snap, nil
}

// SaveSnapshot stores the bridge snapshot.
func (s *Store) SaveSnapshot(_ context.Context, snap model.Snapshot) error {
	return s.PutJSON(SnapshotKey, snap)
}
