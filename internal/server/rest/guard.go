package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
)

type ctxKey string

const userKey ctxKey = "user"

// UserFromContext returns the user attached by the access guard.
func UserFromContext(ctx context.Context) (*models.PublicUser, bool) {
	u, ok := ctx.Value(userKey).(*models.PublicUser)
	return u, ok && u != nil
}

// accessToken reads the token from the accessToken cookie, falling back to
// an Authorization: Bearer header.
func accessToken(r *http.Request) string {
	if c, err := r.Cookie(common.AccessTokenCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get(common.AuthorizationHeaderName)
	if len(h) > len(common.BearerPrefix) && strings.EqualFold(h[:len(common.BearerPrefix)], common.BearerPrefix) {
		return strings.TrimSpace(h[len(common.BearerPrefix):])
	}
	return ""
}

// accessGuard rejects requests without a valid access token and attaches
// the resolved user to the request context.
func (h *Handler) accessGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := h.users.Authenticate(r.Context(), accessToken(r))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

func mustUser(r *http.Request) *models.PublicUser {
	u, ok := UserFromContext(r.Context())
	if !ok {
		panic("rest: guarded handler reached without a user")
	}
	return u
}
