package server

import (
	"context"
	"encoding/json"
	"net/http"

	"StreamVibe/config"
	"StreamVibe/logger"
	"StreamVibe/model"
	"StreamVibe/repository"
)

// SongResolver 是处理器依赖的解析入口
type SongResolver interface {
	Resolve(ctx context.Context, videoID string) (*model.Song, error)
	NotifyPlayed(song *model.Song, email string)
}

// APIHandler 处理所有API请求
type APIHandler struct {
	resolver SongResolver
	userRepo repository.UserRepository
	cfg      *config.Config
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(resolver SongResolver, userRepo repository.UserRepository, cfg *config.Config) *APIHandler {
	return &APIHandler{
		resolver: resolver,
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// HealthHandler 健康检查
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// HistoryHandler 返回当前用户的播放历史（两个视图）
func (h *APIHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	email, err := GetEmailFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	historyViews, err := h.userRepo.GetHistory(email)
	if err != nil {
		logger.Error("[History] 查询播放历史失败",
			logger.String("email", email),
			logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to get history")
		return
	}
	if historyViews == nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	respondJSON(w, http.StatusOK, historyViews)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
