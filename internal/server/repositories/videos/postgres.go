package videos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/dbx"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, v *models.Video) (*models.Video, error) {
	query :=
		`INSERT INTO videos (id, owner_id, video_url, video_public_id, thumbnail_url,
		   thumbnail_public_id, title, description, is_published)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING views, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		v.ID, v.OwnerID, v.VideoURL, v.VideoPublicID, v.ThumbnailURL,
		v.ThumbnailPublicID, v.Title, v.Description, v.IsPublished,
	).Scan(&v.Views, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return v, nil
}

func (r *PostgresRepository) GetSummary(ctx context.Context, id string) (*models.VideoSummary, error) {
	query :=
		`SELECT v.id, v.video_url, v.thumbnail_url, v.title, v.description,
		   v.views, v.is_published, v.created_at,
		   o.full_name, o.username, o.avatar_url
		 FROM videos v
		 JOIN users o ON o.id = v.owner_id
		 WHERE v.id = $1`

	var v models.VideoSummary
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&v.ID, &v.VideoFile, &v.Thumbnail, &v.Title, &v.Description,
		&v.Views, &v.IsPublished, &v.CreatedAt,
		&v.Owner.FullName, &v.Owner.Username, &v.Owner.Avatar)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &v, nil
}

func (r *PostgresRepository) IncrementViews(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE videos SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	ok, err := dbx.Affected(res)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if !ok {
		return common.ErrNotFound
	}
	return nil
}
