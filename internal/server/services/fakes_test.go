package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/cryptox"
	"github.com/dmitrijs2005/vidtube/internal/dbx"
	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/auth"
	"github.com/dmitrijs2005/vidtube/internal/server/media"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	subsrepo "github.com/dmitrijs2005/vidtube/internal/server/repositories/subscriptions"
	usersrepo "github.com/dmitrijs2005/vidtube/internal/server/repositories/users"
	videosrepo "github.com/dmitrijs2005/vidtube/internal/server/repositories/videos"
)

// memUsers is an in-memory users.Repository with the same uniqueness and
// compare-and-swap semantics as the postgres one.
type memUsers struct {
	mu      sync.Mutex
	byID    map[string]*models.User
	history map[string][]string
	videos  *memVideos
	subs    *memSubs

	err       error
	createErr error
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*models.User{}, history: map[string][]string{}}
}

func clone(u *models.User) *models.User {
	c := *u
	if u.RefreshToken != nil {
		t := *u.RefreshToken
		c.RefreshToken = &t
	}
	return &c
}

func (m *memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	for _, x := range m.byID {
		if x.Username == u.Username || x.Email == u.Email {
			return nil, common.NewError(common.ErrConflict, "user with email or username already exists")
		}
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.byID[u.ID] = clone(u)
	return clone(u), nil
}

func (m *memUsers) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	for _, x := range m.byID {
		if x.Username == username || x.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return clone(u), nil
}

func (m *memUsers) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, x := range m.byID {
		if (username != "" && x.Username == username) || (email != "" && x.Email == email) {
			return clone(x), nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memUsers) update(id string, fn func(u *models.User)) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now()
	return clone(u), nil
}

func (m *memUsers) SetRefreshToken(ctx context.Context, id, token string) error {
	_, err := m.update(id, func(u *models.User) { u.RefreshToken = &token })
	return err
}

func (m *memUsers) RotateRefreshToken(ctx context.Context, id, presented, next string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	u, ok := m.byID[id]
	if !ok || u.RefreshToken == nil || *u.RefreshToken != presented {
		return false, nil
	}
	u.RefreshToken = &next
	return true, nil
}

func (m *memUsers) ClearRefreshToken(ctx context.Context, id string) error {
	_, err := m.update(id, func(u *models.User) { u.RefreshToken = nil })
	return err
}

func (m *memUsers) UpdatePassword(ctx context.Context, id, hash string) error {
	_, err := m.update(id, func(u *models.User) { u.PasswordHash = hash })
	return err
}

func (m *memUsers) UpdateAccount(ctx context.Context, id, fullName, email string) (*models.User, error) {
	m.mu.Lock()
	for _, x := range m.byID {
		if x.ID != id && x.Email == email {
			m.mu.Unlock()
			return nil, common.NewError(common.ErrConflict, "email is already in use")
		}
	}
	m.mu.Unlock()
	return m.update(id, func(u *models.User) { u.FullName = fullName; u.Email = email })
}

func (m *memUsers) UpdateAvatar(ctx context.Context, id, url, publicID string) (*models.User, error) {
	return m.update(id, func(u *models.User) { u.AvatarURL = url; u.AvatarPublicID = publicID })
}

func (m *memUsers) UpdateCoverImage(ctx context.Context, id, url, publicID string) (*models.User, error) {
	return m.update(id, func(u *models.User) { u.CoverImageURL = url; u.CoverImagePublicID = publicID })
}

func (m *memUsers) ChannelProfile(ctx context.Context, username, viewerID string) (*models.ChannelProfile, error) {
	u, err := m.FindByUsernameOrEmail(ctx, username, "")
	if err != nil {
		return nil, err
	}
	p := &models.ChannelProfile{ID: u.ID, FullName: u.FullName, Username: u.Username, Email: u.Email,
		Avatar: u.AvatarURL, CoverImage: u.CoverImageURL}
	if m.subs != nil {
		p.SubscribersCount, p.ChannelsSubscribedToCount, p.IsSubscribed = m.subs.counts(u.ID, viewerID)
	}
	return p, nil
}

func (m *memUsers) WatchHistory(ctx context.Context, userID string) ([]models.VideoSummary, error) {
	m.mu.Lock()
	ids := append([]string(nil), m.history[userID]...)
	m.mu.Unlock()

	out := make([]models.VideoSummary, 0, len(ids))
	for _, id := range ids {
		v, err := m.videos.GetSummary(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (m *memUsers) AppendWatchHistory(ctx context.Context, userID, videoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.history[userID] = append(m.history[userID], videoID)
	return nil
}

type memVideos struct {
	mu     sync.Mutex
	byID   map[string]*models.Video
	users  *memUsers
	err    error
	incErr error
}

func (m *memVideos) Create(ctx context.Context, v *models.Video) (*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	v.CreatedAt = time.Now()
	c := *v
	m.byID[v.ID] = &c
	return v, nil
}

func (m *memVideos) GetSummary(ctx context.Context, id string) (*models.VideoSummary, error) {
	m.mu.Lock()
	v, ok := m.byID[id]
	m.mu.Unlock()
	if !ok {
		return nil, common.ErrNotFound
	}
	owner, err := m.users.GetByID(ctx, v.OwnerID)
	if err != nil {
		return nil, err
	}
	return &models.VideoSummary{
		ID: v.ID, VideoFile: v.VideoURL, Thumbnail: v.ThumbnailURL, Title: v.Title,
		Description: v.Description, Views: v.Views, IsPublished: v.IsPublished, CreatedAt: v.CreatedAt,
		Owner: models.Owner{FullName: owner.FullName, Username: owner.Username, Avatar: owner.AvatarURL},
	}, nil
}

func (m *memVideos) IncrementViews(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incErr != nil {
		return m.incErr
	}
	v, ok := m.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	v.Views++
	return nil
}

type memSubs struct {
	mu    sync.Mutex
	pairs map[[2]string]bool
}

func (m *memSubs) Subscribe(ctx context.Context, subscriberID, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairs[[2]string{subscriberID, channelID}] = true
	return nil
}

func (m *memSubs) Unsubscribe(ctx context.Context, subscriberID, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pairs, [2]string{subscriberID, channelID})
	return nil
}

func (m *memSubs) counts(channelID, viewerID string) (subscribers, subscribedTo int64, isSubscribed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for p := range m.pairs {
		if p[1] == channelID {
			subscribers++
			if p[0] == viewerID {
				isSubscribed = true
			}
		}
		if p[0] == channelID {
			subscribedTo++
		}
	}
	return
}

type fakeRepoManager struct {
	users  *memUsers
	videos *memVideos
	subs   *memSubs
}

func newFakeRepoManager() *fakeRepoManager {
	u := newMemUsers()
	v := &memVideos{byID: map[string]*models.Video{}, users: u}
	s := &memSubs{pairs: map[[2]string]bool{}}
	u.videos, u.subs = v, s
	return &fakeRepoManager{users: u, videos: v, subs: s}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository        { return m.users }
func (m *fakeRepoManager) Videos(db dbx.DBTX) videosrepo.Repository      { return m.videos }
func (m *fakeRepoManager) Subscriptions(db dbx.DBTX) subsrepo.Repository { return m.subs }

// fakeUploader hands out predictable assets and records deletions.
type fakeUploader struct {
	mu       sync.Mutex
	failFor  map[string]error
	uploaded []string
	deleted  []string
}

func (f *fakeUploader) Upload(ctx context.Context, localPath string) (*media.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[localPath]; err != nil {
		return nil, err
	}
	f.uploaded = append(f.uploaded, localPath)
	id := "media/" + localPath
	return &media.Asset{URL: "https://cdn.test/" + id, PublicID: id}, nil
}

func (f *fakeUploader) Delete(ctx context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, publicID)
	return nil
}

var errUploadDown = errors.New("object storage unavailable")

type fixture struct {
	rm       *fakeRepoManager
	uploader *fakeUploader
	issuer   *auth.Issuer
	users    *UserService
	channels *ChannelService
	videos   *VideoService
	db       *sql.DB
	mock     sqlmock.Sqlmock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	hasher, err := cryptox.NewHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}
	issuer, err := auth.NewIssuer(auth.Config{
		AccessSecret:  []byte("test-access-secret"),
		AccessTTL:     time.Hour,
		RefreshSecret: []byte("test-refresh-secret"),
		RefreshTTL:    240 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewIssuer error: %v", err)
	}

	rm := newFakeRepoManager()
	up := &fakeUploader{failFor: map[string]error{}}
	log := logging.Nop{}

	return &fixture{
		rm:       rm,
		uploader: up,
		issuer:   issuer,
		users:    NewUserService(db, rm, hasher, issuer, up, log),
		channels: NewChannelService(db, rm, log),
		videos:   NewVideoService(db, rm, up, log),
		db:       db,
		mock:     mock,
	}
}

func adaInput() RegisterInput {
	return RegisterInput{
		FullName: "Ada Lovelace",
		Username: "ada",
		Email:    "ada@x.com",
		Password: "secret123",
		Avatar:   &UploadedFile{Path: "ada-avatar.png"},
	}
}
