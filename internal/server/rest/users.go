package rest

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/dmitrijs2005/vidtube/internal/server/services"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	up, err := h.parseUploads(w, r, "avatar", "coverImage")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer up.cleanup(r.Context())

	f, err := readFields(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.users.Register(r.Context(), services.RegisterInput{
		FullName:   f["fullName"],
		Username:   f["username"],
		Email:      f["email"],
		Password:   f["password"],
		Avatar:     up.get("avatar"),
		CoverImage: up.get("coverImage"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, user, "User registered successfully")
}

type loginResponse struct {
	User         *models.PublicUser `json:"user"`
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	f, err := readFields(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	sess, err := h.users.Login(r.Context(), services.LoginInput{
		Username: f["username"],
		Email:    f["email"],
		Password: f["password"],
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.setAuthCookies(w, sess.TokenPair)
	respond(w, http.StatusOK, loginResponse{
		User:         sess.User,
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
	}, "User logged in successfully")
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Logout(r.Context(), mustUser(r).ID); err != nil {
		h.fail(w, r, err)
		return
	}
	clearAuthCookies(w)
	respond(w, http.StatusOK, nil, "User logged out")
}

// refreshToken prefers the cookie and falls back to a refreshToken body
// field.
func (h *Handler) refreshToken(w http.ResponseWriter, r *http.Request) {
	presented := ""
	if c, err := r.Cookie(common.RefreshTokenCookieName); err == nil {
		presented = c.Value
	}
	if presented == "" {
		f, err := readFields(w, r)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		presented = f["refreshToken"]
	}

	pair, err := h.users.Refresh(r.Context(), presented)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.setAuthCookies(w, *pair)
	respond(w, http.StatusOK, pair, "Access token refreshed")
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	f, err := readFields(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.users.ChangePassword(r.Context(), mustUser(r).ID, f["oldPassword"], f["newPassword"]); err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, nil, "Password changed successfully")
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.CurrentUser(r.Context(), mustUser(r).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, user, "Current user fetched successfully")
}

func (h *Handler) updateAccount(w http.ResponseWriter, r *http.Request) {
	f, err := readFields(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.users.UpdateAccount(r.Context(), mustUser(r).ID, f["fullName"], f["email"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, user, "Account details updated successfully")
}

func (h *Handler) updateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", h.users.UpdateAvatar, "Avatar image updated successfully")
}

func (h *Handler) updateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", h.users.UpdateCoverImage, "Cover image updated successfully")
}

type imageUpdate func(ctx context.Context, userID string, file *services.UploadedFile) (*models.PublicUser, error)

func (h *Handler) updateImage(w http.ResponseWriter, r *http.Request, field string, update imageUpdate, message string) {
	up, err := h.parseUploads(w, r, field)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer up.cleanup(r.Context())

	user, err := update(r.Context(), mustUser(r).ID, up.get(field))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, user, message)
}
