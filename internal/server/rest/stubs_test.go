package rest

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/dmitrijs2005/vidtube/internal/server/services"
)

var errUnauthorized = common.NewError(common.ErrUnauthorized, "Invalid access token")

var ada = &models.PublicUser{ID: "u-ada", Username: "ada", Email: "ada@example.com", FullName: "Ada Lovelace"}

// stubUsers lets each test override only the calls it cares about.
type stubUsers struct {
	register       func(services.RegisterInput) (*models.PublicUser, error)
	login          func(services.LoginInput) (*services.Session, error)
	logout         func(string) error
	refresh        func(string) (*services.TokenPair, error)
	changePassword func(userID, oldPassword, newPassword string) error
	updateAccount  func(userID, fullName, email string) (*models.PublicUser, error)
	updateAvatar   func(string, *services.UploadedFile) (*models.PublicUser, error)
}

func (s *stubUsers) Register(_ context.Context, in services.RegisterInput) (*models.PublicUser, error) {
	return s.register(in)
}

func (s *stubUsers) Login(_ context.Context, in services.LoginInput) (*services.Session, error) {
	return s.login(in)
}

func (s *stubUsers) Logout(_ context.Context, id string) error { return s.logout(id) }

func (s *stubUsers) Refresh(_ context.Context, t string) (*services.TokenPair, error) {
	return s.refresh(t)
}

func (s *stubUsers) ChangePassword(_ context.Context, id, o, n string) error {
	return s.changePassword(id, o, n)
}

// Authenticate accepts the literal token "good".
func (s *stubUsers) Authenticate(_ context.Context, token string) (*models.PublicUser, error) {
	if token != "good" {
		return nil, errUnauthorized
	}
	return ada, nil
}

func (s *stubUsers) CurrentUser(_ context.Context, id string) (*models.PublicUser, error) {
	return ada, nil
}

func (s *stubUsers) UpdateAccount(_ context.Context, id, fullName, email string) (*models.PublicUser, error) {
	return s.updateAccount(id, fullName, email)
}

func (s *stubUsers) UpdateAvatar(_ context.Context, id string, f *services.UploadedFile) (*models.PublicUser, error) {
	return s.updateAvatar(id, f)
}

func (s *stubUsers) UpdateCoverImage(_ context.Context, id string, f *services.UploadedFile) (*models.PublicUser, error) {
	return s.updateAvatar(id, f)
}

type stubChannels struct {
	profile     func(username, viewerID string) (*models.ChannelProfile, error)
	history     func(string) ([]models.VideoSummary, error)
	subscribe   func(viewerID, username string) error
	unsubscribe func(viewerID, username string) error
}

func (s *stubChannels) ChannelProfile(_ context.Context, username, viewerID string) (*models.ChannelProfile, error) {
	return s.profile(username, viewerID)
}

func (s *stubChannels) WatchHistory(_ context.Context, id string) ([]models.VideoSummary, error) {
	return s.history(id)
}

func (s *stubChannels) Subscribe(_ context.Context, viewerID, username string) error {
	return s.subscribe(viewerID, username)
}

func (s *stubChannels) Unsubscribe(_ context.Context, viewerID, username string) error {
	return s.unsubscribe(viewerID, username)
}

type stubVideos struct {
	publish func(string, services.PublishInput) (*models.Video, error)
	get     func(string) (*models.VideoSummary, error)
	view    func(viewerID, videoID string) error
}

func (s *stubVideos) Publish(_ context.Context, owner string, in services.PublishInput) (*models.Video, error) {
	return s.publish(owner, in)
}

func (s *stubVideos) Get(_ context.Context, id string) (*models.VideoSummary, error) {
	return s.get(id)
}

func (s *stubVideos) RecordView(_ context.Context, viewerID, videoID string) error {
	return s.view(viewerID, videoID)
}

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		CORSOrigin:  "http://localhost:5173",
		UploadDir:   t.TempDir(),
		UploadLimit: 1 << 20,
		AccessTTL:   15 * time.Minute,
		RefreshTTL:  24 * time.Hour,
	}
}

func newTestHandler(t *testing.T, u *stubUsers, c *stubChannels, v *stubVideos) *Handler {
	t.Helper()
	if u == nil {
		u = &stubUsers{}
	}
	if c == nil {
		c = &stubChannels{}
	}
	if v == nil {
		v = &stubVideos{}
	}
	h, err := NewHandler(testConfig(t), u, c, v, logging.Nop{})
	require.NoError(t, err)
	return h
}

type part struct {
	field, filename, contentType string
	body                         []byte
}

// multipartBody encodes fields and file parts the way a browser form would.
func multipartBody(t *testing.T, values map[string]string, parts ...part) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, p := range parts {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.filename+`"`)
		hdr.Set("Content-Type", p.contentType)
		w, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = w.Write(p.body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer good")
	return req
}
