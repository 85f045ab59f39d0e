// Package services contains application services for the vidtube CLI.
// This file defines the session service: register, login, logout, token
// refresh, and the authenticated profile calls built on top of them.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vidtube/internal/client/client"
	"github.com/dmitrijs2005/vidtube/internal/client/models"
	"github.com/dmitrijs2005/vidtube/internal/client/repositories/session"
	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/dbx"
)

var (
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrSessionExpired = fmt.Errorf("%w: session expired, log in again", ErrNotLoggedIn)
)

// AuthService defines the operations behind the CLI commands.
//
// Contract:
//   - Login stores the token pair and username locally; Logout forgets them.
//   - Authenticated calls use the stored access token. When the server
//     answers 401 they refresh the pair once and retry.
//   - A rejected refresh clears the local session and returns ErrSessionExpired.
type AuthService interface {
	Register(ctx context.Context, r models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, identifier, password string) (*models.User, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) error
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	CurrentUser(ctx context.Context) (*models.User, error)
	ChannelProfile(ctx context.Context, username string) (*models.ChannelProfile, error)
	WatchHistory(ctx context.Context) ([]models.VideoSummary, error)
	Username(ctx context.Context) (string, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// authService is the concrete AuthService backed by a remote Client
// and the local session store.
type authService struct {
	client client.Client
	db     *sql.DB
}

// NewAuthService constructs an AuthService bound to the given API client and DB.
func NewAuthService(client client.Client, db *sql.DB) AuthService {
	return &authService{client: client, db: db}
}

func (a *authService) getSessionRepo() session.Repository {
	return session.NewSQLiteRepository(a.db)
}

func (a *authService) Register(ctx context.Context, r models.RegisterRequest) (*models.User, error) {
	if r.AvatarPath == "" {
		return nil, common.NewError(common.ErrValidation, "avatar file is required")
	}
	return a.client.Register(ctx, r)
}

// Login authenticates against the server and persists the session.
func (a *authService) Login(ctx context.Context, identifier, password string) (*models.User, error) {
	s, err := a.client.Login(ctx, identifier, password)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	username := identifier
	if s.User != nil {
		username = s.User.Username
	}
	if err := a.saveSession(ctx, username, s.TokenPair); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return s.User, nil
}

// saveSession writes the token pair (and username when non-empty) in a
// single transaction.
func (a *authService) saveSession(ctx context.Context, username string, pair models.TokenPair) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := session.NewSQLiteRepository(tx)
		if username != "" {
			if err := repo.Set(ctx, session.KeyUsername, username); err != nil {
				return err
			}
		}
		if err := repo.Set(ctx, session.KeyAccessToken, pair.AccessToken); err != nil {
			return err
		}
		return repo.Set(ctx, session.KeyRefreshToken, pair.RefreshToken)
	})
}

// Refresh exchanges the stored refresh token for a new pair.
func (a *authService) Refresh(ctx context.Context) error {
	repo := a.getSessionRepo()

	refresh, err := repo.Get(ctx, session.KeyRefreshToken)
	if err != nil {
		return err
	}
	if refresh == "" {
		return ErrNotLoggedIn
	}

	pair, err := a.client.Refresh(ctx, refresh)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			if cerr := repo.Clear(ctx); cerr != nil {
				return cerr
			}
			return ErrSessionExpired
		}
		return err
	}

	return a.saveSession(ctx, "", *pair)
}

// authorized runs call with the stored access token, refreshing once when
// the access guard rejects it. Other 401s are returned as is.
func authorized[T any](ctx context.Context, a *authService, call func(accessToken string) (T, error)) (T, error) {
	var zero T
	repo := a.getSessionRepo()

	access, err := repo.Get(ctx, session.KeyAccessToken)
	if err != nil {
		return zero, err
	}
	if access == "" {
		return zero, ErrNotLoggedIn
	}

	v, err := call(access)
	if !common.IsAccessDenied(err) {
		return v, err
	}

	if err := a.Refresh(ctx); err != nil {
		return zero, err
	}
	if access, err = repo.Get(ctx, session.KeyAccessToken); err != nil {
		return zero, err
	}
	return call(access)
}

// Logout tells the server to drop the refresh token and always clears the
// local session.
func (a *authService) Logout(ctx context.Context) error {
	_, err := authorized(ctx, a, func(tok string) (struct{}, error) {
		return struct{}{}, a.client.Logout(ctx, tok)
	})

	if cerr := a.getSessionRepo().Clear(ctx); cerr != nil {
		return cerr
	}
	if errors.Is(err, ErrNotLoggedIn) {
		return nil
	}
	return err
}

func (a *authService) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	_, err := authorized(ctx, a, func(tok string) (struct{}, error) {
		return struct{}{}, a.client.ChangePassword(ctx, tok, oldPassword, newPassword)
	})
	return err
}

func (a *authService) CurrentUser(ctx context.Context) (*models.User, error) {
	return authorized(ctx, a, func(tok string) (*models.User, error) {
		return a.client.CurrentUser(ctx, tok)
	})
}

func (a *authService) ChannelProfile(ctx context.Context, username string) (*models.ChannelProfile, error) {
	return authorized(ctx, a, func(tok string) (*models.ChannelProfile, error) {
		return a.client.ChannelProfile(ctx, tok, username)
	})
}

func (a *authService) WatchHistory(ctx context.Context) ([]models.VideoSummary, error) {
	return authorized(ctx, a, func(tok string) ([]models.VideoSummary, error) {
		return a.client.WatchHistory(ctx, tok)
	})
}

// Username returns the signed-in username, or "" when logged out.
func (a *authService) Username(ctx context.Context) (string, error) {
	return a.getSessionRepo().Get(ctx, session.KeyUsername)
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
