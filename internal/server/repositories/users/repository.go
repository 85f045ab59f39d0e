package users

import (
	"context"

	"github.com/dmitrijs2005/vidtube/internal/server/models"
)

// Repository is the credential store plus the user-centric read models.
// Every update touches only the columns it names.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)

	SetRefreshToken(ctx context.Context, id, token string) error
	// RotateRefreshToken replaces presented with next only if presented is
	// still the stored value. It reports whether the swap happened.
	RotateRefreshToken(ctx context.Context, id, presented, next string) (bool, error)
	ClearRefreshToken(ctx context.Context, id string) error

	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAccount(ctx context.Context, id, fullName, email string) (*models.User, error)
	UpdateAvatar(ctx context.Context, id, url, publicID string) (*models.User, error)
	UpdateCoverImage(ctx context.Context, id, url, publicID string) (*models.User, error)

	ChannelProfile(ctx context.Context, username, viewerID string) (*models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.VideoSummary, error)
	AppendWatchHistory(ctx context.Context, userID, videoID string) error
}
