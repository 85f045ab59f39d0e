// Package services contains server-side business logic: the session
// lifecycle and profile operations (UserService), channel and subscription
// queries (ChannelService) and videos (VideoService).
package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/vidtube/internal/server/auth"
	"github.com/dmitrijs2005/vidtube/internal/server/media"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UploadedFile is a file received from a client and parked on local disk.
// A nil *UploadedFile means the field was not sent.
type UploadedFile struct {
	Path         string
	OriginalName string
	ContentType  string
	Size         int64
}

// Uploader moves local files to object storage.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (*media.Asset, error)
	Delete(ctx context.Context, publicID string) error
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

type TokenIssuer interface {
	IssueAccessToken(c auth.AccessClaims) (string, error)
	IssueRefreshToken(userID string) (string, error)
	Verify(token string, kind auth.Kind) (*auth.Claims, error)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
