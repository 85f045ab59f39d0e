package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/dbx"
	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/repomanager"
)

type VideoService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	uploader    Uploader
	log         logging.Logger
}

func NewVideoService(db *sql.DB, m repomanager.RepositoryManager, uploader Uploader, log logging.Logger) *VideoService {
	return &VideoService{db: db, repomanager: m, uploader: uploader, log: log.With("module", "videos")}
}

type PublishInput struct {
	Title       string
	Description string
	VideoFile   *UploadedFile
	Thumbnail   *UploadedFile
}

// Publish stores the video and thumbnail and creates a published video
// owned by ownerID.
func (s *VideoService) Publish(ctx context.Context, ownerID string, in PublishInput) (*models.Video, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)

	if title == "" || description == "" {
		return nil, common.NewError(common.ErrValidation, "title and description are required")
	}
	if in.VideoFile == nil || in.Thumbnail == nil {
		return nil, common.NewError(common.ErrValidation, "video file and thumbnail are required")
	}

	video, err := s.uploader.Upload(ctx, in.VideoFile.Path)
	if err != nil {
		s.log.Error(ctx, "video upload failed", "error", err)
		return nil, common.NewError(common.ErrDependency, "Error while uploading video")
	}

	thumb, err := s.uploader.Upload(ctx, in.Thumbnail.Path)
	if err != nil {
		s.log.Error(ctx, "thumbnail upload failed", "error", err)
		s.deleteQuietly(ctx, video.PublicID)
		return nil, common.NewError(common.ErrDependency, "Error while uploading thumbnail")
	}

	v, err := s.repomanager.Videos(s.db).Create(ctx, &models.Video{
		ID:                uuid.NewString(),
		OwnerID:           ownerID,
		VideoURL:          video.URL,
		VideoPublicID:     video.PublicID,
		ThumbnailURL:      thumb.URL,
		ThumbnailPublicID: thumb.PublicID,
		Title:             title,
		Description:       description,
		IsPublished:       true,
	})
	if err != nil {
		s.deleteQuietly(ctx, video.PublicID)
		s.deleteQuietly(ctx, thumb.PublicID)
		return nil, err
	}

	s.log.Info(ctx, "video published", "video_id", v.ID, "owner_id", ownerID)
	return v, nil
}

func (s *VideoService) Get(ctx context.Context, videoID string) (*models.VideoSummary, error) {
	if _, err := uuid.Parse(videoID); err != nil {
		return nil, common.NewError(common.ErrValidation, "invalid video id")
	}

	v, err := s.repomanager.Videos(s.db).GetSummary(ctx, videoID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewError(common.ErrNotFound, "video does not exist")
		}
		return nil, err
	}
	return v, nil
}

// RecordView counts a view and appends the video to the viewer's history
// in one transaction.
func (s *VideoService) RecordView(ctx context.Context, viewerID, videoID string) error {
	if _, err := uuid.Parse(videoID); err != nil {
		return common.NewError(common.ErrValidation, "invalid video id")
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Videos(tx).IncrementViews(ctx, videoID); err != nil {
			return err
		}
		return s.repomanager.Users(tx).AppendWatchHistory(ctx, viewerID, videoID)
	})
	if errors.Is(err, common.ErrNotFound) {
		return common.NewError(common.ErrNotFound, "video does not exist")
	}
	return err
}

func (s *VideoService) deleteQuietly(ctx context.Context, publicID string) {
	if err := s.uploader.Delete(ctx, publicID); err != nil {
		s.log.Warn(ctx, "orphaned object cleanup failed", "public_id", publicID, "error", err)
	}
}
