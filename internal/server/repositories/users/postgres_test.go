package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return NewPostgresRepository(db), mock, db
}

var userCols = []string{"id", "username", "email", "full_name", "password_hash",
	"avatar_url", "avatar_public_id", "cover_image_url", "cover_image_public_id",
	"refresh_token", "created_at", "updated_at"}

var ts = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func adaRow(refresh any) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).AddRow("u-1", "ada", "ada@example.com", "Ada Lovelace", "$2a$hash",
		"https://cdn/a.png", "media/a.png", "", "", refresh, ts, ts)
}

func TestCreate_Success(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	q := `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*username,\s*email,.*VALUES\s*\(\$1,.*\$9\)\s*RETURNING\s+created_at,\s*updated_at$`
	mock.ExpectQuery(q).
		WithArgs("u-1", "ada", "ada@example.com", "Ada Lovelace", "$2a$hash", "https://cdn/a.png", "media/a.png", "", "").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(ts, ts))

	u := &models.User{ID: "u-1", Username: "ada", Email: "ada@example.com", FullName: "Ada Lovelace",
		PasswordHash: "$2a$hash", AvatarURL: "https://cdn/a.png", AvatarPublicID: "media/a.png"}
	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, ts, got.CreatedAt)
	assert.Equal(t, ts, got.UpdatedAt)
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), &models.User{ID: "u-1"})
	require.ErrorIs(t, err, common.ErrConflict)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{ID: "u-1"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestExistsByUsernameOrEmail(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s+OR\s+email\s*=\s*\$2\)`).
		WithArgs("ada", "ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.ExistsByUsernameOrEmail(context.Background(), "ada", "ada@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetByID(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)SELECT\s+id,\s*username,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs("u-1").
		WillReturnRows(adaRow("stored-token"))

	u, err := repo.GetByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Username)
	require.NotNil(t, u.RefreshToken)
	assert.Equal(t, "stored-token", *u.RefreshToken)
}

func TestGetByID_NullRefreshAndNotFound(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+id`).WithArgs("u-1").WillReturnRows(adaRow(nil))
	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+id`).WithArgs("u-2").WillReturnError(sql.ErrNoRows)

	u, err := repo.GetByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Nil(t, u.RefreshToken)

	_, err = repo.GetByID(context.Background(), "u-2")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestFindByUsernameOrEmail(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)WHERE\s+\(username\s*=\s*\$1.*OR\s+\(email\s*=\s*\$2.*LIMIT\s+1$`).
		WithArgs("", "ada@example.com").
		WillReturnRows(adaRow(nil))

	u, err := repo.FindByUsernameOrEmail(context.Background(), "", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
}

func TestSetRefreshToken(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	q := `^UPDATE\s+users\s+SET\s+refresh_token\s*=\s*\$2,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs("u-1", "tok").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("u-2", "tok").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.SetRefreshToken(context.Background(), "u-1", "tok"))
	require.ErrorIs(t, repo.SetRefreshToken(context.Background(), "u-2", "tok"), common.ErrNotFound)
}

func TestRotateRefreshToken_CompareAndSwap(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	q := `(?s)^UPDATE\s+users\s+SET\s+refresh_token\s*=\s*\$3.*WHERE\s+id\s*=\s*\$1\s+AND\s+refresh_token\s*=\s*\$2$`
	mock.ExpectExec(q).WithArgs("u-1", "old", "new").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("u-1", "old", "newer").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q).WithArgs("u-1", "old", "x").WillReturnError(errors.New("conn reset"))

	ok, err := repo.RotateRefreshToken(context.Background(), "u-1", "old", "new")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.RotateRefreshToken(context.Background(), "u-1", "old", "newer")
	require.NoError(t, err)
	assert.False(t, ok, "second rotation with the same presented token must lose")

	_, err = repo.RotateRefreshToken(context.Background(), "u-1", "old", "x")
	require.ErrorContains(t, err, "db error")
}

func TestClearRefreshToken(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+refresh_token\s*=\s*NULL`).WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ClearRefreshToken(context.Background(), "u-1"))
}

func TestUpdatePassword_OnlyTouchesHash(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectExec(`^UPDATE\s+users\s+SET\s+password_hash\s*=\s*\$2,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs("u-1", "$2a$new").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdatePassword(context.Background(), "u-1", "$2a$new"))
}

func TestUpdateAccount(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	q := `(?s)^UPDATE\s+users\s+SET\s+full_name\s*=\s*\$2,\s*email\s*=\s*\$3,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$1\s+RETURNING\s+id,`
	mock.ExpectQuery(q).WithArgs("u-1", "Ada King", "ada@example.com").WillReturnRows(adaRow(nil))
	mock.ExpectQuery(q).WithArgs("u-1", "Ada King", "taken@example.com").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectQuery(q).WithArgs("u-9", "Ada King", "ada@example.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateAccount(context.Background(), "u-1", "Ada King", "ada@example.com")
	require.NoError(t, err)

	_, err = repo.UpdateAccount(context.Background(), "u-1", "Ada King", "taken@example.com")
	require.ErrorIs(t, err, common.ErrConflict)

	_, err = repo.UpdateAccount(context.Background(), "u-9", "Ada King", "ada@example.com")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateAvatarAndCover(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)SET\s+avatar_url\s*=\s*\$2,\s*avatar_public_id\s*=\s*\$3`).
		WithArgs("u-1", "https://cdn/new.png", "media/new.png").WillReturnRows(adaRow(nil))
	mock.ExpectQuery(`(?s)SET\s+cover_image_url\s*=\s*\$2,\s*cover_image_public_id\s*=\s*\$3`).
		WithArgs("u-1", "https://cdn/c.png", "media/c.png").WillReturnRows(adaRow(nil))

	_, err := repo.UpdateAvatar(context.Background(), "u-1", "https://cdn/new.png", "media/new.png")
	require.NoError(t, err)
	_, err = repo.UpdateCoverImage(context.Background(), "u-1", "https://cdn/c.png", "media/c.png")
	require.NoError(t, err)
}

func TestChannelProfile(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	q := `(?s)SELECT\s+u\.id,.*COUNT\(\*\).*channel_id\s*=\s*u\.id.*subscriber_id\s*=\s*u\.id.*EXISTS.*WHERE\s+u\.username\s*=\s*\$1$`
	mock.ExpectQuery(q).WithArgs("ada", "u-2").WillReturnRows(
		sqlmock.NewRows([]string{"id", "full_name", "username", "email", "avatar_url", "cover_image_url",
			"subscribers", "subscribed_to", "is_subscribed"}).
			AddRow("u-1", "Ada Lovelace", "ada", "ada@example.com", "https://cdn/a.png", "", 3, 1, true))
	mock.ExpectQuery(q).WithArgs("nobody", "u-2").WillReturnError(sql.ErrNoRows)

	p, err := repo.ChannelProfile(context.Background(), "ada", "u-2")
	require.NoError(t, err)
	assert.Equal(t, &models.ChannelProfile{
		ID: "u-1", FullName: "Ada Lovelace", Username: "ada", Email: "ada@example.com",
		Avatar: "https://cdn/a.png", SubscribersCount: 3, ChannelsSubscribedToCount: 1, IsSubscribed: true,
	}, p)

	_, err = repo.ChannelProfile(context.Background(), "nobody", "u-2")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestWatchHistory(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	cols := []string{"id", "video_url", "thumbnail_url", "title", "description", "views", "is_published",
		"created_at", "full_name", "username", "avatar_url"}
	mock.ExpectQuery(`(?s)FROM\s+watch_history\s+h.*JOIN\s+videos\s+v.*JOIN\s+users\s+o.*WHERE\s+h\.user_id\s*=\s*\$1\s+ORDER\s+BY\s+h\.id$`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("v-1", "https://cdn/v1.mp4", "https://cdn/t1.png", "First", "d1", 10, true, ts, "Grace Hopper", "grace", "https://cdn/g.png").
			AddRow("v-2", "https://cdn/v2.mp4", "https://cdn/t2.png", "Second", "d2", 2, true, ts, "Ada Lovelace", "ada", "https://cdn/a.png"))

	h, err := repo.WatchHistory(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, h, 2)
	assert.Equal(t, "v-1", h[0].ID)
	assert.Equal(t, models.Owner{FullName: "Grace Hopper", Username: "grace", Avatar: "https://cdn/g.png"}, h[0].Owner)
	assert.Equal(t, "v-2", h[1].ID)
}

func TestWatchHistory_EmptyIsNotNil(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+watch_history`).WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	h, err := repo.WatchHistory(context.Background(), "u-1")
	require.NoError(t, err)
	assert.NotNil(t, h)
	assert.Empty(t, h)
}

func TestAppendWatchHistory(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectExec(`^INSERT\s+INTO\s+watch_history\s*\(user_id,\s*video_id\)\s*VALUES\s*\(\$1,\s*\$2\)$`).
		WithArgs("u-1", "v-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.AppendWatchHistory(context.Background(), "u-1", "v-1"))
}
