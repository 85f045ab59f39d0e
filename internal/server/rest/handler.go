// Package rest exposes the vidtube services over HTTP using chi.
package rest

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/filex"
	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/dmitrijs2005/vidtube/internal/server/services"
)

// UserService is the account and session surface used by the handlers.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.PublicUser, error)
	Login(ctx context.Context, in services.LoginInput) (*services.Session, error)
	Logout(ctx context.Context, userID string) error
	Refresh(ctx context.Context, presented string) (*services.TokenPair, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	Authenticate(ctx context.Context, accessToken string) (*models.PublicUser, error)
	CurrentUser(ctx context.Context, userID string) (*models.PublicUser, error)
	UpdateAccount(ctx context.Context, userID, fullName, email string) (*models.PublicUser, error)
	UpdateAvatar(ctx context.Context, userID string, file *services.UploadedFile) (*models.PublicUser, error)
	UpdateCoverImage(ctx context.Context, userID string, file *services.UploadedFile) (*models.PublicUser, error)
}

type ChannelService interface {
	ChannelProfile(ctx context.Context, username, viewerID string) (*models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.VideoSummary, error)
	Subscribe(ctx context.Context, viewerID, channelUsername string) error
	Unsubscribe(ctx context.Context, viewerID, channelUsername string) error
}

type VideoService interface {
	Publish(ctx context.Context, ownerID string, in services.PublishInput) (*models.Video, error)
	Get(ctx context.Context, videoID string) (*models.VideoSummary, error)
	RecordView(ctx context.Context, viewerID, videoID string) error
}

// Config carries the transport settings taken from the server config.
type Config struct {
	CORSOrigin  string
	UploadDir   string
	UploadLimit int64
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
}

type Handler struct {
	cfg       Config
	uploadDir string
	users     UserService
	channels  ChannelService
	videos    VideoService
	log       logging.Logger
}

// NewHandler prepares the upload directory and returns a Handler.
func NewHandler(cfg Config, users UserService, channels ChannelService, videos VideoService, log logging.Logger) (*Handler, error) {
	dir, err := filex.EnsureSubdDir(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("upload dir: %w", err)
	}
	return &Handler{
		cfg:       cfg,
		uploadDir: dir,
		users:     users,
		channels:  channels,
		videos:    videos,
		log:       log,
	}, nil
}
