package model

import "time"

// Thumbnail is one cover image candidate; the upstream orders these by
// size, last entry preferred.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// AdaptiveFormat is one candidate stream link. The URL embeds an
// `expire` query parameter (epoch seconds) controlled by the source.
type AdaptiveFormat struct {
	URL      string `json:"url"`
	Itag     int    `json:"itag,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Bitrate  int    `json:"bitrate,omitempty"`
}

// Song is the resolved representation of one external video identifier,
// exactly as the upstream returned it. It is replaced wholesale on every
// refetch; nothing here is merged.
type Song struct {
	VideoID         string           `json:"videoId"`
	Title           string           `json:"title"`
	Author          string           `json:"author"`
	Thumbnails      []Thumbnail      `json:"thumbnail"`
	DurationSeconds int              `json:"duration"`
	IsExplicit      bool             `json:"isExplicit"`
	Keywords        []string         `json:"keywords,omitempty"`
	AdaptiveFormats []AdaptiveFormat `json:"adaptiveFormats"`
}

// StreamURL returns the playback link in active use: the last adaptive
// format. Empty string when the song carries no links.
func (s *Song) StreamURL() string {
	if s == nil || len(s.AdaptiveFormats) == 0 {
		return ""
	}
	return s.AdaptiveFormats[len(s.AdaptiveFormats)-1].URL
}

// Summary builds the compact per-play record kept in user history.
func (s *Song) Summary() PlaySummary {
	thumbnail := ""
	if len(s.Thumbnails) > 0 {
		thumbnail = s.Thumbnails[len(s.Thumbnails)-1].URL
	}
	return PlaySummary{
		VideoID:    s.VideoID,
		Title:      s.Title,
		Author:     s.Author,
		Thumbnail:  thumbnail,
		Duration:   s.DurationSeconds,
		IsExplicit: s.IsExplicit,
	}
}

// SongRecord is the persistent row for a resolved song. The full upstream
// payload is kept as a JSON document so that a refetch is a plain
// replace-or-insert, never a column-by-column merge.
type SongRecord struct {
	VideoID   string    `gorm:"column:video_id;primaryKey;size:64"`
	Document  string    `gorm:"column:document;type:json"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName 指定表名
func (SongRecord) TableName() string {
	return "songs"
}
