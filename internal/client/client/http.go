// Package client talks to the vidtube REST API and owns the CLI's local
// SQLite database.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/client/models"
	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/netx"
)

const apiPrefix = "/api/v1"

type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient returns a client for the server at baseURL, e.g.
// "http://127.0.0.1:8000".
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("server url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("server url %q: expected http(s)://host[:port]", baseURL)
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

type envelope struct {
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// kindFor maps an HTTP status back to the error kind the server used.
func kindFor(status int) error {
	switch status {
	case http.StatusBadRequest:
		return common.ErrValidation
	case http.StatusUnauthorized:
		return common.ErrUnauthorized
	case http.StatusNotFound:
		return common.ErrNotFound
	case http.StatusConflict:
		return common.ErrConflict
	}
	return common.ErrInternal
}

// do sends req and decodes the data member of the response envelope into
// out (when non-nil). Error responses become *common.Error values carrying
// the server's message.
func (c *HTTPClient) do(req *http.Request, accessToken string, out any) error {
	if accessToken != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+accessToken)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadResponse, resp.Status, err)
	}

	if resp.StatusCode >= 400 {
		msg := env.Message
		if msg == "" {
			msg = resp.Status
		}
		return common.NewError(kindFor(resp.StatusCode), msg)
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return nil
}

func (c *HTTPClient) url(path string) string {
	return c.baseURL + path
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := netx.NewJSONRequest(ctx, http.MethodGet, c.url("/healthz"), nil)
	if err != nil {
		return err
	}
	return c.do(req, "", nil)
}

func (c *HTTPClient) Register(ctx context.Context, r models.RegisterRequest) (*models.User, error) {
	files := []netx.FilePart{{Field: "avatar", Path: r.AvatarPath}}
	if r.CoverImagePath != "" {
		files = append(files, netx.FilePart{Field: "coverImage", Path: r.CoverImagePath})
	}

	req, err := netx.NewMultipartRequest(ctx, http.MethodPost, c.url(apiPrefix+"/users/register"),
		map[string]string{
			"fullName": r.FullName,
			"username": r.Username,
			"email":    r.Email,
			"password": r.Password,
		}, files)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := c.do(req, "", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login sends identifier as email when it contains '@', otherwise as
// username.
func (c *HTTPClient) Login(ctx context.Context, identifier, password string) (*models.Session, error) {
	payload := map[string]string{"password": password}
	if strings.Contains(identifier, "@") {
		payload["email"] = identifier
	} else {
		payload["username"] = identifier
	}

	req, err := netx.NewJSONRequest(ctx, http.MethodPost, c.url(apiPrefix+"/users/login"), payload)
	if err != nil {
		return nil, err
	}

	var s models.Session
	if err := c.do(req, "", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	req, err := netx.NewJSONRequest(ctx, http.MethodPost, c.url(apiPrefix+"/users/refresh-token"),
		map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return nil, err
	}

	var pair models.TokenPair
	if err := c.do(req, "", &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

func (c *HTTPClient) Logout(ctx context.Context, accessToken string) error {
	req, err := netx.NewJSONRequest(ctx, http.MethodPost, c.url(apiPrefix+"/users/logout"), nil)
	if err != nil {
		return err
	}
	return c.do(req, accessToken, nil)
}

func (c *HTTPClient) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	req, err := netx.NewJSONRequest(ctx, http.MethodGet, c.url(apiPrefix+"/users/current-user"), nil)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := c.do(req, accessToken, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *HTTPClient) ChangePassword(ctx context.Context, accessToken, oldPassword, newPassword string) error {
	req, err := netx.NewJSONRequest(ctx, http.MethodPost, c.url(apiPrefix+"/users/change-password"),
		map[string]string{"oldPassword": oldPassword, "newPassword": newPassword})
	if err != nil {
		return err
	}
	return c.do(req, accessToken, nil)
}

func (c *HTTPClient) ChannelProfile(ctx context.Context, accessToken, username string) (*models.ChannelProfile, error) {
	req, err := netx.NewJSONRequest(ctx, http.MethodGet,
		c.url(apiPrefix+"/users/c/"+url.PathEscape(username)), nil)
	if err != nil {
		return nil, err
	}

	var p models.ChannelProfile
	if err := c.do(req, accessToken, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) WatchHistory(ctx context.Context, accessToken string) ([]models.VideoSummary, error) {
	req, err := netx.NewJSONRequest(ctx, http.MethodGet, c.url(apiPrefix+"/users/history"), nil)
	if err != nil {
		return nil, err
	}

	history := []models.VideoSummary{}
	if err := c.do(req, accessToken, &history); err != nil {
		return nil, err
	}
	return history, nil
}
