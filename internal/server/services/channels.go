package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/repomanager"
)

// ChannelService answers channel-centric reads and manages subscriptions.
type ChannelService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewChannelService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *ChannelService {
	return &ChannelService{db: db, repomanager: m, log: log.With("module", "channels")}
}

// ChannelProfile returns the channel of username as seen by viewerID.
func (s *ChannelService) ChannelProfile(ctx context.Context, username, viewerID string) (*models.ChannelProfile, error) {
	username = normalize(username)
	if username == "" {
		return nil, common.NewError(common.ErrValidation, "username is missing")
	}

	p, err := s.repomanager.Users(s.db).ChannelProfile(ctx, username, viewerID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewError(common.ErrNotFound, "channel does not exist")
		}
		return nil, err
	}
	return p, nil
}

// WatchHistory lists the videos userID has watched, oldest first.
func (s *ChannelService) WatchHistory(ctx context.Context, userID string) ([]models.VideoSummary, error) {
	return s.repomanager.Users(s.db).WatchHistory(ctx, userID)
}

func (s *ChannelService) Subscribe(ctx context.Context, viewerID, channelUsername string) error {
	channelID, err := s.channelID(ctx, viewerID, channelUsername)
	if err != nil {
		return err
	}
	return s.repomanager.Subscriptions(s.db).Subscribe(ctx, viewerID, channelID)
}

func (s *ChannelService) Unsubscribe(ctx context.Context, viewerID, channelUsername string) error {
	channelID, err := s.channelID(ctx, viewerID, channelUsername)
	if err != nil {
		return err
	}
	return s.repomanager.Subscriptions(s.db).Unsubscribe(ctx, viewerID, channelID)
}

func (s *ChannelService) channelID(ctx context.Context, viewerID, username string) (string, error) {
	username = normalize(username)
	if username == "" {
		return "", common.NewError(common.ErrValidation, "username is missing")
	}

	channel, err := s.repomanager.Users(s.db).FindByUsernameOrEmail(ctx, username, "")
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.NewError(common.ErrNotFound, "channel does not exist")
		}
		return "", err
	}

	if channel.ID == viewerID {
		return "", common.NewError(common.ErrValidation, "cannot subscribe to your own channel")
	}
	return channel.ID, nil
}
