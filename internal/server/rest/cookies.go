package rest

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/server/services"
)

func authCookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *Handler) setAuthCookies(w http.ResponseWriter, pair services.TokenPair) {
	http.SetCookie(w, authCookie(common.AccessTokenCookieName, pair.AccessToken, h.cfg.AccessTTL))
	http.SetCookie(w, authCookie(common.RefreshTokenCookieName, pair.RefreshToken, h.cfg.RefreshTTL))
}

func clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{common.AccessTokenCookieName, common.RefreshTokenCookieName} {
		c := authCookie(name, "", 0)
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}
