package repository

import (
	"context"
	"errors"

	"Zenith/model"

	"gorm.io/gorm"
)

// TrackRepository 歌曲数据访问接口
type TrackRepository interface {
	Create(ctx context.Context, rec *model.SongRecord) error
	GetByID(ctx context.Context, id string) (*model.SongRecord, error)
	ListByUser(ctx context.Context, userID string) ([]*model.SongRecord, error)
	ListPublic(ctx context.Context, limit int) ([]*model.SongRecord, error)
	ListByIDs(ctx context.Context, ids []string) ([]*model.SongRecord, error)
	UpdateFields(ctx context.Context, id string, fields model.TrackFields) error
	SetVisibility(ctx context.Context, id string, public bool) error
	SetCover(ctx context.Context, ids []string, coverURL string) error
	Delete(ctx context.Context, id string) error
}

// gormTrackRepository GORM 实现
type gormTrackRepository struct {
	db *gorm.DB
}

// NewGormTrackRepository 创建 GORM 歌曲仓库
func NewGormTrackRepository(db *gorm.DB) TrackRepository {
	return &gormTrackRepository{db: db}
}

// Create 创建歌曲
func (r *gormTrackRepository) Create(ctx context.Context, rec *model.SongRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// GetByID 根据ID获取歌曲，不存在返回 nil, nil
func (r *gormTrackRepository) GetByID(ctx context.Context, id string) (*model.SongRecord, error) {
	var rec model.SongRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// ListByUser 用户上传的歌曲，最新的在前
func (r *gormTrackRepository) ListByUser(ctx context.Context, userID string) ([]*model.SongRecord, error) {
	var recs []*model.SongRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&recs).Error
	return recs, err
}

// ListPublic 公开歌曲，最新的在前
func (r *gormTrackRepository) ListPublic(ctx context.Context, limit int) ([]*model.SongRecord, error) {
	var recs []*model.SongRecord
	q := r.db.WithContext(ctx).
		Where("is_public = ?", true).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&recs).Error
	return recs, err
}

// ListByIDs 批量获取歌曲
func (r *gormTrackRepository) ListByIDs(ctx context.Context, ids []string) ([]*model.SongRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var recs []*model.SongRecord
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&recs).Error
	return recs, err
}

// UpdateFields 更新标题、歌手、专辑
func (r *gormTrackRepository) UpdateFields(ctx context.Context, id string, fields model.TrackFields) error {
	res := r.db.WithContext(ctx).Model(&model.SongRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"title":  fields.Title,
			"artist": fields.Artist,
			"album":  fields.Album,
		})
	return rowsAffected(res)
}

// SetVisibility 设置是否公开
func (r *gormTrackRepository) SetVisibility(ctx context.Context, id string, public bool) error {
	res := r.db.WithContext(ctx).Model(&model.SongRecord{}).
		Where("id = ?", id).
		Update("is_public", public)
	return rowsAffected(res)
}

// SetCover 批量更新封面
func (r *gormTrackRepository) SetCover(ctx context.Context, ids []string, coverURL string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.SongRecord{}).
		Where("id IN ?", ids).
		Update("cover_url", coverURL).Error
}

// Delete 删除歌曲及其收藏记录
func (r *gormTrackRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("song_id = ?", id).Delete(&model.LikedSong{}).Error; err != nil {
			return err
		}
		return rowsAffected(tx.Where("id = ?", id).Delete(&model.SongRecord{}))
	})
}

// ErrRecordMissing is returned by updates that matched no row.
var ErrRecordMissing = errors.New("record not found")

func rowsAffected(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordMissing
	}
	return nil
}
