package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"StreamVibe/logger"
	"StreamVibe/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SongRepository defines the interface for resolved-song persistence.
// A miss is reported as (nil, nil), not as an error.
type SongRepository interface {
	FindByVideoID(ctx context.Context, videoID string) (*model.Song, error)
	Upsert(ctx context.Context, song *model.Song) error
}

// gormSongRepository implements SongRepository on MySQL via GORM,
// storing the upstream payload as a JSON document.
type gormSongRepository struct {
	db *gorm.DB
}

// NewGormSongRepository creates a new gormSongRepository.
func NewGormSongRepository(db *gorm.DB) SongRepository {
	return &gormSongRepository{db: db}
}

// FindByVideoID 根据视频ID查询已解析的歌曲。
// 记录不存在或文档无法解析时返回 (nil, nil)，由上层当作缺失处理并重新拉取。
func (r *gormSongRepository) FindByVideoID(ctx context.Context, videoID string) (*model.Song, error) {
	var rec model.SongRecord
	err := r.db.WithContext(ctx).First(&rec, "video_id = ?", videoID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query song %s: %w", videoID, err)
	}

	var song model.Song
	if err := json.Unmarshal([]byte(rec.Document), &song); err != nil {
		logger.Warn("歌曲文档损坏，按缺失处理",
			logger.String("videoId", videoID),
			logger.ErrorField(err))
		return nil, nil
	}
	return &song, nil
}

// Upsert 整体替换（或插入）一条歌曲记录
func (r *gormSongRepository) Upsert(ctx context.Context, song *model.Song) error {
	doc, err := json.Marshal(song)
	if err != nil {
		return fmt.Errorf("failed to marshal song %s: %w", song.VideoID, err)
	}

	rec := model.SongRecord{
		VideoID:  song.VideoID,
		Document: string(doc),
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "video_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"document", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to upsert song %s: %w", song.VideoID, err)
	}
	return nil
}
