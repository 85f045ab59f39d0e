// Package models defines server-side records persisted in the database and
// the sanitized views returned to clients.
package models

import "time"

// User is the full credential record. PasswordHash and RefreshToken never
// leave the server; use Public for anything sent to a client.
type User struct {
	ID                 string
	Username           string
	Email              string
	FullName           string
	PasswordHash       string `json:"-"`
	AvatarURL          string
	AvatarPublicID     string
	CoverImageURL      string
	CoverImagePublicID string
	RefreshToken       *string `json:"-"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PublicUser is the sanitized user record.
type PublicUser struct {
	ID         string    `json:"_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.AvatarURL,
		CoverImage: u.CoverImageURL,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// ChannelProfile is the public view of a user's channel as seen by a viewer.
type ChannelProfile struct {
	ID                        string `json:"_id"`
	FullName                  string `json:"fullName"`
	Username                  string `json:"username"`
	Email                     string `json:"email"`
	Avatar                    string `json:"avatar"`
	CoverImage                string `json:"coverImage"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}
