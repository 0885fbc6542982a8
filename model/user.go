package model

import "time"

// User represents a user in the system.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Not exposed in API responses
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PlaySummary is the descriptive snapshot of a song stored in a user's
// history, captured at play time.
type PlaySummary struct {
	VideoID    string `json:"videoId"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	Thumbnail  string `json:"thumbnail"`
	Duration   int    `json:"duration"`
	IsExplicit bool   `json:"isExplicit"`
}

// PlayCount is a PlaySummary plus how many times the song was played.
// The embedded summary keeps the fields from the first play; only the
// counter changes on repeats.
type PlayCount struct {
	PlaySummary
	Count int `json:"count"`
}

// UserHistory holds the two views over a user's played songs:
// RecentlyPlayed ordered most-recent-first and deduplicated by videoId,
// MostPlayed keyed by videoId with a play counter.
type UserHistory struct {
	RecentlyPlayed []PlaySummary `json:"recentlyPlayed"`
	MostPlayed     []PlayCount   `json:"mostPlayed"`
}
