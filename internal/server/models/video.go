package models

import "time"

type Video struct {
	ID                string    `json:"_id"`
	OwnerID           string    `json:"owner"`
	VideoURL          string    `json:"videoFile"`
	VideoPublicID     string    `json:"-"`
	ThumbnailURL      string    `json:"thumbnail"`
	ThumbnailPublicID string    `json:"-"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Views             int64     `json:"views"`
	IsPublished       bool      `json:"isPublished"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Owner is the embedded uploader summary of a video.
type Owner struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// VideoSummary is a video as listed to clients, with its owner embedded.
type VideoSummary struct {
	ID          string    `json:"_id"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Views       int64     `json:"views"`
	IsPublished bool      `json:"isPublished"`
	Owner       Owner     `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
}
