package client

import (
	"context"

	"github.com/dmitrijs2005/vidtube/internal/client/models"
)

// Client is the remote API as seen by the CLI. Authenticated calls take the
// access token explicitly; the caller owns token storage and refresh.
type Client interface {
	Close() error
	Ping(ctx context.Context) error
	Register(ctx context.Context, r models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, identifier, password string) (*models.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Logout(ctx context.Context, accessToken string) error
	CurrentUser(ctx context.Context, accessToken string) (*models.User, error)
	ChangePassword(ctx context.Context, accessToken, oldPassword, newPassword string) error
	ChannelProfile(ctx context.Context, accessToken, username string) (*models.ChannelProfile, error)
	WatchHistory(ctx context.Context, accessToken string) ([]models.VideoSummary, error)
}
