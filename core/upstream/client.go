package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"StreamVibe/config"
	"StreamVibe/logger"
	"StreamVibe/model"
)

// Client 上游流媒体源API客户端。
// 认证采用 key + host 两个凭证的请求头，区域提示通过 cgeo 参数传递。
type Client struct {
	baseURL     string
	apiKey      string
	apiHost     string
	region      string
	maxAttempts int
	baseDelay   time.Duration
	httpClient  *http.Client
}

// NewClient 根据配置创建上游客户端
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:     cfg.UpstreamBaseURL,
		apiKey:      cfg.UpstreamAPIKey,
		apiHost:     cfg.UpstreamAPIHost,
		region:      cfg.UpstreamRegion,
		maxAttempts: cfg.FetchMaxAttempts,
		baseDelay:   cfg.FetchBaseDelay,
		httpClient: &http.Client{
			// 单次请求超时，防止上游挂起阻塞整个解析
			Timeout: cfg.FetchTimeout,
		},
	}
}

// FetchSong 带重试地从上游获取歌曲。
// 最多尝试 maxAttempts 次，第 n 次失败后等待 baseDelay*n 再试（线性退避），
// 最后一次失败后不再等待，直接返回最后一个错误。
// 上游明确返回 OK 但没有任何播放链接时返回 (nil, nil)，表示该ID无内容。
func (c *Client) FetchSong(ctx context.Context, videoID string) (*model.Song, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		song, err := c.fetchOnce(ctx, videoID)
		if err == nil {
			return song, nil
		}
		lastErr = err

		logger.Warn("[FetchSong] 上游请求失败",
			logger.String("videoId", videoID),
			logger.Int("attempt", attempt),
			logger.ErrorField(err))

		if attempt == c.maxAttempts {
			break
		}

		select {
		case <-time.After(c.baseDelay * time.Duration(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// fetchOnce 执行单次上游请求
func (c *Client) fetchOnce(ctx context.Context, videoID string) (*model.Song, error) {
	req, err := c.createRequest(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API返回错误状态码: %d", resp.StatusCode)
	}

	var result struct {
		Status          string                 `json:"status"`
		Title           string                 `json:"title"`
		Author          string                 `json:"author"`
		Thumbnail       []model.Thumbnail      `json:"thumbnail"`
		Duration        int                    `json:"duration"`
		IsExplicit      bool                   `json:"isExplicit"`
		Keywords        []string               `json:"keywords"`
		AdaptiveFormats []model.AdaptiveFormat `json:"adaptiveFormats"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}

	// 缺少成功标记一律按失败处理，交给重试
	if result.Status != "OK" {
		return nil, fmt.Errorf("上游返回非成功状态: %q", result.Status)
	}

	// 成功但没有任何播放链接：该ID无可用内容，与失败区分开
	if len(result.AdaptiveFormats) == 0 {
		return nil, nil
	}

	return &model.Song{
		VideoID:         videoID,
		Title:           result.Title,
		Author:          result.Author,
		Thumbnails:      result.Thumbnail,
		DurationSeconds: result.Duration,
		IsExplicit:      result.IsExplicit,
		Keywords:        result.Keywords,
		AdaptiveFormats: result.AdaptiveFormats,
	}, nil
}

// createRequest 构造带认证头和区域参数的GET请求
func (c *Client) createRequest(ctx context.Context, videoID string) (*http.Request, error) {
	params := url.Values{}
	params.Set("id", videoID)
	params.Set("cgeo", c.region)

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.apiHost)
	return req, nil
}
