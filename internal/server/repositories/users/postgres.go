package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/dbx"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
)

const userColumns = `id, username, email, full_name, password_hash,
		avatar_url, avatar_public_id, cover_image_url, cover_image_public_id,
		refresh_token, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var refresh sql.NullString

	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash,
		&u.AvatarURL, &u.AvatarPublicID, &u.CoverImageURL, &u.CoverImagePublicID,
		&refresh, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if refresh.Valid {
		u.RefreshToken = &refresh.String
	}
	return u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (id, username, email, full_name, password_hash,
		   avatar_url, avatar_public_id, cover_image_url, cover_image_public_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.Email, user.FullName, user.PasswordHash,
		user.AvatarURL, user.AvatarPublicID, user.CoverImageURL, user.CoverImagePublicID,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.NewError(common.ErrConflict, "user with email or username already exists")
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// FindByUsernameOrEmail returns the first user matching either column.
// Empty arguments never match.
func (r *PostgresRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE (username = $1 AND $1 <> '') OR (email = $2 AND $2 <> '')
		 LIMIT 1`
	return scanUser(r.db.QueryRowContext(ctx, query, username, email))
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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

func (r *PostgresRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	return r.exec(ctx,
		`UPDATE users SET refresh_token = $2, updated_at = now() WHERE id = $1`, id, token)
}

func (r *PostgresRepository) RotateRefreshToken(ctx context.Context, id, presented, next string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token = $3, updated_at = now()
		 WHERE id = $1 AND refresh_token = $2`,
		id, presented, next)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	ok, err := dbx.Affected(res)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) ClearRefreshToken(ctx context.Context, id string) error {
	return r.exec(ctx,
		`UPDATE users SET refresh_token = NULL, updated_at = now() WHERE id = $1`, id)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
}

func (r *PostgresRepository) updateReturning(ctx context.Context, set string, args ...any) (*models.User, error) {
	query := `UPDATE users SET ` + set + `, updated_at = now() WHERE id = $1 RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, args...))
}

func (r *PostgresRepository) UpdateAccount(ctx context.Context, id, fullName, email string) (*models.User, error) {
	u, err := r.updateReturning(ctx, `full_name = $2, email = $3`, id, fullName, email)
	if err != nil && dbx.IsUniqueViolation(err) {
		return nil, common.NewError(common.ErrConflict, "email is already in use")
	}
	return u, err
}

func (r *PostgresRepository) UpdateAvatar(ctx context.Context, id, url, publicID string) (*models.User, error) {
	return r.updateReturning(ctx, `avatar_url = $2, avatar_public_id = $3`, id, url, publicID)
}

func (r *PostgresRepository) UpdateCoverImage(ctx context.Context, id, url, publicID string) (*models.User, error) {
	return r.updateReturning(ctx, `cover_image_url = $2, cover_image_public_id = $3`, id, url, publicID)
}

func (r *PostgresRepository) ChannelProfile(ctx context.Context, username, viewerID string) (*models.ChannelProfile, error) {
	query :=
		`SELECT u.id, u.full_name, u.username, u.email, u.avatar_url, u.cover_image_url,
		   (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id),
		   (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id),
		   EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id::text = $2)
		 FROM users u
		 WHERE u.username = $1`

	p := &models.ChannelProfile{}
	err := r.db.QueryRowContext(ctx, query, username, viewerID).Scan(
		&p.ID, &p.FullName, &p.Username, &p.Email, &p.Avatar, &p.CoverImage,
		&p.SubscribersCount, &p.ChannelsSubscribedToCount, &p.IsSubscribed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// WatchHistory lists watched videos oldest first, each with its owner.
func (r *PostgresRepository) WatchHistory(ctx context.Context, userID string) ([]models.VideoSummary, error) {
	query :=
		`SELECT v.id, v.video_url, v.thumbnail_url, v.title, v.description,
		   v.views, v.is_published, v.created_at,
		   o.full_name, o.username, o.avatar_url
		 FROM watch_history h
		 JOIN videos v ON v.id = h.video_id
		 JOIN users o ON o.id = v.owner_id
		 WHERE h.user_id = $1
		 ORDER BY h.id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	history := make([]models.VideoSummary, 0)
	for rows.Next() {
		var v models.VideoSummary
		if err := rows.Scan(&v.ID, &v.VideoFile, &v.Thumbnail, &v.Title, &v.Description,
			&v.Views, &v.IsPublished, &v.CreatedAt,
			&v.Owner.FullName, &v.Owner.Username, &v.Owner.Avatar); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		history = append(history, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return history, nil
}

func (r *PostgresRepository) AppendWatchHistory(ctx context.Context, userID, videoID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO watch_history (user_id, video_id) VALUES ($1, $2)`, userID, videoID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
