package subscriptions

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/vidtube/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Subscribe(ctx context.Context, subscriberID, channelID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscriptions (subscriber_id, channel_id) VALUES ($1, $2)
		 ON CONFLICT (subscriber_id, channel_id) DO NOTHING`,
		subscriberID, channelID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Unsubscribe(ctx context.Context, subscriberID, channelID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`,
		subscriberID, channelID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
