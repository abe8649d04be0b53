package repository

import (
	"context"
	"time"

	"Zenith/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikedRepository 收藏数据访问接口
type LikedRepository interface {
	ListSongs(ctx context.Context, userID string) ([]*model.SongRecord, error)
	Add(ctx context.Context, userID, songID string) error
	Remove(ctx context.Context, userID, songID string) error
}

type gormLikedRepository struct {
	db *gorm.DB
}

// NewGormLikedRepository 创建 GORM 收藏仓库
func NewGormLikedRepository(db *gorm.DB) LikedRepository {
	return &gormLikedRepository{db: db}
}

// ListSongs 用户收藏的歌曲，最近收藏的在前
func (r *gormLikedRepository) ListSongs(ctx context.Context, userID string) ([]*model.SongRecord, error) {
	var recs []*model.SongRecord
	err := r.db.WithContext(ctx).
		Table("songs").
		Select("songs.*").
		Joins("JOIN liked_songs ON liked_songs.song_id = songs.id").
		Where("liked_songs.user_id = ?", userID).
		Order("liked_songs.created_at DESC").
		Find(&recs).Error
	return recs, err
}

// Add 收藏歌曲，重复收藏忽略
func (r *gormLikedRepository) Add(ctx context.Context, userID, songID string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.LikedSong{UserID: userID, SongID: songID, CreatedAt: time.Now()}).Error
}

// Remove 取消收藏
func (r *gormLikedRepository) Remove(ctx context.Context, userID, songID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND song_id = ?", userID, songID).
		Delete(&model.LikedSong{}).Error
}
