package server

import (
	"errors"
	"net/http"

	"StreamVibe/core/resolver"
	"StreamVibe/logger"
)

// PlayHandler 处理 /play?videoId=X[&email=E] 请求：
// 解析出可播放链接后重定向客户端，随后才调度历史更新。
func (h *APIHandler) PlayHandler(w http.ResponseWriter, r *http.Request) {
	videoID := r.URL.Query().Get("videoId")
	if videoID == "" {
		respondError(w, http.StatusBadRequest, "videoId is required")
		return
	}

	email := h.playerEmail(r)

	logger.Info("[Play] 收到播放请求",
		logger.String("videoId", videoID),
		logger.String("email", email))

	song, err := h.resolver.Resolve(r.Context(), videoID)
	if err != nil {
		switch {
		case errors.Is(err, resolver.ErrSongNotFound):
			respondError(w, http.StatusNotFound, "Song not found")
		default:
			logger.Error("[Play] 解析失败",
				logger.String("videoId", videoID),
				logger.ErrorField(err))
			respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	streamURL := song.StreamURL()
	if streamURL == "" {
		respondError(w, http.StatusNotFound, "Song not found")
		return
	}

	// 先把客户端重定向到流地址，历史更新在其后异步进行
	http.Redirect(w, r, streamURL, http.StatusFound)

	h.resolver.NotifyPlayed(song, email)
}

// playerEmail 确定本次播放归属的用户：优先 email 查询参数，
// 其次 Authorization 头中JWT携带的邮箱；都没有则为匿名播放。
func (h *APIHandler) playerEmail(r *http.Request) string {
	if email := r.URL.Query().Get("email"); email != "" {
		return email
	}
	if claims := bearerClaims(r); claims != nil {
		return claims.Email
	}
	return ""
}
