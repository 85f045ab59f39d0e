package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/server/auth"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
)

// Authenticate resolves an access token to the sanitized user it names.
// Any failure, including an unknown user, is ErrUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (*models.PublicUser, error) {
	if accessToken == "" {
		return nil, common.NewError(common.ErrUnauthorized, common.MsgUnauthorizedRequest)
	}

	claims, err := s.tokens.Verify(accessToken, auth.KindAccess)
	if err != nil {
		return nil, common.NewError(common.ErrUnauthorized, common.MsgInvalidAccessToken)
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewError(common.ErrUnauthorized, common.MsgInvalidAccessToken)
		}
		return nil, err
	}

	return user.Public(), nil
}

func (s *UserService) CurrentUser(ctx context.Context, userID string) (*models.PublicUser, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewError(common.ErrNotFound, "User does not exist")
		}
		return nil, err
	}
	return user.Public(), nil
}

// UpdateAccount changes the display name and email. Both are required.
func (s *UserService) UpdateAccount(ctx context.Context, userID, fullName, email string) (*models.PublicUser, error) {
	fullName = strings.TrimSpace(fullName)
	email = normalize(email)

	if fullName == "" || email == "" {
		return nil, common.NewError(common.ErrValidation, "All fields are required")
	}

	user, err := s.repomanager.Users(s.db).UpdateAccount(ctx, userID, fullName, email)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID string, file *UploadedFile) (*models.PublicUser, error) {
	return s.replaceImage(ctx, userID, file, "Avatar",
		func(u *models.User) string { return u.AvatarPublicID },
		func(ctx context.Context, url, publicID string) (*models.User, error) {
			return s.repomanager.Users(s.db).UpdateAvatar(ctx, userID, url, publicID)
		})
}

func (s *UserService) UpdateCoverImage(ctx context.Context, userID string, file *UploadedFile) (*models.PublicUser, error) {
	return s.replaceImage(ctx, userID, file, "Cover image",
		func(u *models.User) string { return u.CoverImagePublicID },
		func(ctx context.Context, url, publicID string) (*models.User, error) {
			return s.repomanager.Users(s.db).UpdateCoverImage(ctx, userID, url, publicID)
		})
}

// replaceImage uploads file, stores its reference and deletes the object it
// replaced. Deleting the old object is best effort.
func (s *UserService) replaceImage(
	ctx context.Context,
	userID string,
	file *UploadedFile,
	label string,
	previous func(*models.User) string,
	store func(ctx context.Context, url, publicID string) (*models.User, error),
) (*models.PublicUser, error) {
	if file == nil {
		return nil, common.Errorf(common.ErrValidation, "%s file is missing", label)
	}

	current, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewError(common.ErrNotFound, "User does not exist")
		}
		return nil, err
	}

	asset, err := s.uploader.Upload(ctx, file.Path)
	if err != nil {
		s.log.Error(ctx, "image upload failed", "label", label, "error", err)
		return nil, common.Errorf(common.ErrDependency, "Error while uploading %s", strings.ToLower(label))
	}

	updated, err := store(ctx, asset.URL, asset.PublicID)
	if err != nil {
		s.discard(ctx, asset.PublicID)
		return nil, err
	}

	if old := previous(current); old != "" && old != asset.PublicID {
		s.discard(ctx, old)
	}

	return updated.Public(), nil
}
