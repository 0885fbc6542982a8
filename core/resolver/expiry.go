package resolver

import (
	"net/url"
	"strconv"
	"time"

	"StreamVibe/model"
)

// IsExpired 判断歌曲当前使用的播放链接是否已失效。
// 取 adaptiveFormats 的最后一项，解析其URL中的 expire 参数（秒级时间戳）。
// 链接缺失、无法解析或参数缺失时一律视为已过期（fail closed），
// 宁可重新拉取也不返回可能已死的链接。
func IsExpired(song *model.Song) bool {
	return isExpiredAt(song, time.Now())
}

func isExpiredAt(song *model.Song, now time.Time) bool {
	if song == nil || len(song.AdaptiveFormats) == 0 {
		return true
	}

	link := song.AdaptiveFormats[len(song.AdaptiveFormats)-1].URL
	parsed, err := url.Parse(link)
	if err != nil {
		return true
	}

	expireParam := parsed.Query().Get("expire")
	if expireParam == "" {
		return true
	}

	expire, err := strconv.ParseInt(expireParam, 10, 64)
	if err != nil {
		return true
	}

	// expire == now 也算过期（边界落在过期一侧）
	return expire <= now.Unix()
}
