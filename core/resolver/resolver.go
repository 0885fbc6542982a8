package resolver

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"StreamVibe/cache"
	"StreamVibe/core/history"
	"StreamVibe/logger"
	"StreamVibe/model"
	"StreamVibe/repository"
)

var (
	// ErrSongNotFound 表示缓存、库、上游都没有该ID对应的歌曲
	ErrSongNotFound = errors.New("song not found")
	// ErrUpstreamFailed 表示上游重试耗尽仍未取到歌曲
	ErrUpstreamFailed = errors.New("upstream fetch failed")
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Fetcher 从上游获取一首歌。(nil, nil) 表示上游确认无内容。
type Fetcher interface {
	FetchSong(ctx context.Context, videoID string) (*model.Song, error)
}

// Resolver 将视频ID解析为当前可播放的歌曲：
// 进程缓存 -> 持久库 -> 过期检查 -> 上游拉取 -> 落库 -> 回填缓存。
type Resolver struct {
	cache   cache.SongCache
	songs   repository.SongRepository
	fetcher Fetcher
	tracker *history.Tracker
}

// New 创建Resolver
func New(songCache cache.SongCache, songs repository.SongRepository, fetcher Fetcher, tracker *history.Tracker) *Resolver {
	return &Resolver{
		cache:   songCache,
		songs:   songs,
		fetcher: fetcher,
		tracker: tracker,
	}
}

// Resolve 解析视频ID。
// 缓存命中直接返回，不再检查链接过期（缓存TTL远短于链接有效期，这是刻意取舍）。
// 同一ID的并发未命中可能各自拉取上游并先后落库，后写覆盖先写；
// 因为每次落库都是整体替换，这只是重复开销而非正确性问题，故不做single-flight。
func (r *Resolver) Resolve(ctx context.Context, videoID string) (*model.Song, error) {
	if song, ok := r.cache.Get(ctx, videoID); ok {
		logger.Debug("[Resolve] 缓存命中", logger.String("videoId", videoID))
		return song, nil
	}

	song, err := r.songs.FindByVideoID(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("查询歌曲库失败: %w", err)
	}

	if song != nil && !IsExpired(song) {
		// 库里的链接仍然有效，直接使用，不请求上游
		r.cache.Set(ctx, videoID, song)
		logger.Debug("[Resolve] 使用库中未过期链接", logger.String("videoId", videoID))
		return song, nil
	}

	if song != nil {
		logger.Info("[Resolve] 链接已过期，重新拉取", logger.String("videoId", videoID))
	}

	fetched, err := r.fetcher.FetchSong(ctx, videoID)
	if err != nil {
		// 拉取失败：不动库也不动缓存，原样上抛（保留底层错误链）
		return nil, fmt.Errorf("%w: %w", ErrUpstreamFailed, err)
	}

	if fetched == nil {
		// 上游确认无内容，区别于拉取失败
		return nil, ErrSongNotFound
	}

	if err := r.songs.Upsert(ctx, fetched); err != nil {
		return nil, fmt.Errorf("歌曲落库失败: %w", err)
	}
	r.cache.Set(ctx, videoID, fetched)

	logger.Info("[Resolve] 上游拉取成功",
		logger.String("videoId", videoID),
		logger.String("title", fetched.Title))
	return fetched, nil
}

// NotifyPlayed 在播放链接已交给调用方之后调度一次历史更新。
// email 格式不合法时静默跳过；更新异步执行，调用方既不等待也看不到其失败。
func (r *Resolver) NotifyPlayed(song *model.Song, email string) {
	if r.tracker == nil || song == nil {
		return
	}
	if !emailPattern.MatchString(email) {
		return
	}
	r.tracker.Dispatch(email, song.Summary())
}
