package videos

import (
	"context"

	"github.com/dmitrijs2005/vidtube/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, video *models.Video) (*models.Video, error)
	GetSummary(ctx context.Context, id string) (*models.VideoSummary, error)
	IncrementViews(ctx context.Context, id string) error
}
