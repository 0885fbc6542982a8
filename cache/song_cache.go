package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"StreamVibe/config"
	"StreamVibe/logger"
	"StreamVibe/model"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// SongCache 是歌曲解析结果的短期缓存。
// TTL 从写入时刻起算，与播放链接内嵌的过期时间无关；命中即返回，
// 不做二次过期检查，因此 TTL 必须远小于链接的实际有效期。
type SongCache interface {
	Get(ctx context.Context, videoID string) (*model.Song, bool)
	Set(ctx context.Context, videoID string, song *model.Song)
	Evict(ctx context.Context, videoID string)
}

// NewSongCache 根据配置选择缓存实现：
// memory（默认）为进程内缓存，redis 用于多实例部署。
func NewSongCache(cfg *config.Config) (SongCache, error) {
	switch cfg.CacheBackend {
	case "", "memory":
		return NewMemorySongCache(cfg.CacheMaxSongs, cfg.CacheTTL), nil
	case "redis":
		if RedisClient == nil {
			return nil, fmt.Errorf("redis song cache requested but Redis client not initialized")
		}
		return NewRedisSongCache(RedisClient, cfg.CacheTTL), nil
	default:
		return nil, fmt.Errorf("unknown song cache backend: %s", cfg.CacheBackend)
	}
}

// memorySongCache 基于 expirable LRU 的进程内实现，进程重启即清空。
type memorySongCache struct {
	lru *expirable.LRU[string, *model.Song]
}

// NewMemorySongCache 创建指定容量和TTL的进程内歌曲缓存
func NewMemorySongCache(maxSongs int, ttl time.Duration) SongCache {
	return &memorySongCache{
		lru: expirable.NewLRU[string, *model.Song](maxSongs, nil, ttl),
	}
}

func (c *memorySongCache) Get(_ context.Context, videoID string) (*model.Song, bool) {
	return c.lru.Get(videoID)
}

func (c *memorySongCache) Set(_ context.Context, videoID string, song *model.Song) {
	c.lru.Add(videoID, song)
}

func (c *memorySongCache) Evict(_ context.Context, videoID string) {
	c.lru.Remove(videoID)
}

// redisSongCache 将歌曲JSON存入Redis并依赖其键TTL过期
type redisSongCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSongCache 创建Redis实现的歌曲缓存
func NewRedisSongCache(client *redis.Client, ttl time.Duration) SongCache {
	return &redisSongCache{client: client, ttl: ttl}
}

// songKey 根据视频ID生成缓存键
func songKey(videoID string) string {
	return fmt.Sprintf("song:%s", videoID)
}

func (c *redisSongCache) Get(ctx context.Context, videoID string) (*model.Song, bool) {
	val, err := c.client.Get(ctx, songKey(videoID)).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("读取歌曲缓存失败",
				logger.String("videoId", videoID),
				logger.ErrorField(err))
		}
		return nil, false
	}

	var song model.Song
	if err := json.Unmarshal([]byte(val), &song); err != nil {
		logger.Warn("歌曲缓存内容损坏，按未命中处理",
			logger.String("videoId", videoID),
			logger.ErrorField(err))
		return nil, false
	}
	return &song, true
}

func (c *redisSongCache) Set(ctx context.Context, videoID string, song *model.Song) {
	data, err := json.Marshal(song)
	if err != nil {
		logger.Warn("序列化歌曲缓存失败",
			logger.String("videoId", videoID),
			logger.ErrorField(err))
		return
	}

	if err := c.client.Set(ctx, songKey(videoID), data, c.ttl).Err(); err != nil {
		logger.Warn("写入歌曲缓存失败",
			logger.String("videoId", videoID),
			logger.ErrorField(err))
	}
}

func (c *redisSongCache) Evict(ctx context.Context, videoID string) {
	if err := c.client.Del(ctx, songKey(videoID)).Err(); err != nil {
		logger.Warn("删除歌曲缓存失败",
			logger.String("videoId", videoID),
			logger.ErrorField(err))
	}
}
