package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/auth"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/repomanager"
)

// UserService drives the account lifecycle: registration, login, logout,
// refresh-token rotation, password change and profile updates.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      TokenIssuer
	uploader    Uploader
	log         logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher, tokens TokenIssuer, uploader Uploader, log logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		uploader:    uploader,
		log:         log.With("module", "users"),
	}
}

type RegisterInput struct {
	FullName   string
	Username   string
	Email      string
	Password   string
	Avatar     *UploadedFile
	CoverImage *UploadedFile
}

type LoginInput struct {
	Username string
	Email    string
	Password string
}

// Session is the result of a successful login.
type Session struct {
	User *models.PublicUser
	TokenPair
}

// Register creates an account. The avatar is mandatory; a failed cover
// upload is logged and the cover left empty.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.PublicUser, error) {
	fullName := strings.TrimSpace(in.FullName)
	username := normalize(in.Username)
	email := normalize(in.Email)

	if blank(fullName, username, email, in.Password) {
		return nil, common.NewError(common.ErrValidation, "All fields are required")
	}

	repo := s.repomanager.Users(s.db)

	exists, err := repo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, common.NewError(common.ErrConflict, "User with email or username already exists")
	}

	if in.Avatar == nil {
		return nil, common.NewError(common.ErrValidation, "Avatar file is required")
	}

	avatar, err := s.uploader.Upload(ctx, in.Avatar.Path)
	if err != nil {
		s.log.Error(ctx, "avatar upload failed", "error", err)
		return nil, common.NewError(common.ErrDependency, "Error while uploading avatar")
	}

	user := &models.User{
		ID:             uuid.NewString(),
		Username:       username,
		Email:          email,
		FullName:       fullName,
		AvatarURL:      avatar.URL,
		AvatarPublicID: avatar.PublicID,
	}

	if in.CoverImage != nil {
		cover, err := s.uploader.Upload(ctx, in.CoverImage.Path)
		if err != nil {
			s.log.Warn(ctx, "cover image upload failed, continuing without", "error", err)
		} else {
			user.CoverImageURL = cover.URL
			user.CoverImagePublicID = cover.PublicID
		}
	}

	user.PasswordHash, err = s.hasher.Hash(in.Password)
	if err != nil {
		s.discard(ctx, user.AvatarPublicID, user.CoverImagePublicID)
		return nil, common.NewError(common.ErrValidation, "Password cannot be used")
	}

	created, err := repo.Create(ctx, user)
	if err != nil {
		s.discard(ctx, user.AvatarPublicID, user.CoverImagePublicID)
		return nil, err
	}

	s.log.Info(ctx, "user registered", "user_id", created.ID, "username", created.Username)
	return created.Public(), nil
}

// discard deletes stored objects that no record refers to.
func (s *UserService) discard(ctx context.Context, publicIDs ...string) {
	for _, id := range publicIDs {
		if id == "" {
			continue
		}
		if err := s.uploader.Delete(ctx, id); err != nil {
			s.log.Warn(ctx, "orphaned object cleanup failed", "public_id", id, "error", err)
		}
	}
}

// Login checks credentials and starts a new session, replacing any stored
// refresh token.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	username := normalize(in.Username)
	email := normalize(in.Email)

	if username == "" && email == "" {
		return nil, common.NewError(common.ErrValidation, "username or email is required")
	}
	if in.Password == "" {
		return nil, common.NewError(common.ErrValidation, "password is required")
	}

	user, err := s.repomanager.Users(s.db).FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewError(common.ErrNotFound, "User does not exist")
		}
		return nil, err
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return nil, common.NewError(common.ErrUnauthorized, "Invalid user credentials")
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}

	if err := s.repomanager.Users(s.db).SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return &Session{User: user.Public(), TokenPair: *pair}, nil
}

// Logout forgets the stored refresh token of userID.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	err := s.repomanager.Users(s.db).ClearRefreshToken(ctx, userID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}
	return nil
}

// Refresh exchanges the current refresh token for a new pair. The stored
// token is replaced by a single conditional UPDATE, so of two concurrent
// calls presenting the same token only one succeeds.
func (s *UserService) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	if presented == "" {
		return nil, common.NewError(common.ErrUnauthorized, "unauthorized request")
	}

	claims, err := s.tokens.Verify(presented, auth.KindRefresh)
	if err != nil {
		return nil, common.NewError(common.ErrUnauthorized, "Invalid refresh token")
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewError(common.ErrNotFound, "User does not exist")
		}
		return nil, err
	}

	if user.RefreshToken == nil || *user.RefreshToken != presented {
		return nil, common.NewError(common.ErrUnauthorized, "Refresh token is expired or used")
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}

	swapped, err := repo.RotateRefreshToken(ctx, user.ID, presented, pair.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, common.NewError(common.ErrUnauthorized, "Refresh token is expired or used")
	}

	return pair, nil
}

// ChangePassword re-hashes the secret after checking the old one.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if blank(newPassword) {
		return common.NewError(common.ErrValidation, "new password is required")
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NewError(common.ErrNotFound, "User does not exist")
		}
		return err
	}

	if !s.hasher.Verify(oldPassword, user.PasswordHash) {
		return common.NewError(common.ErrUnauthorized, "Invalid old password")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return common.NewError(common.ErrValidation, "Password cannot be used")
	}

	return repo.UpdatePassword(ctx, user.ID, hash)
}

func (s *UserService) issuePair(user *models.User) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(auth.AccessClaims{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
	})
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refresh, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
