// Package common contains shared constants and sentinel errors used across
// vidtube components.
package common

// Cookie names carrying the session tokens between the browser and the API.
const (
	AccessTokenCookieName  = "accessToken"
	RefreshTokenCookieName = "refreshToken"
)

// AuthorizationHeaderName and BearerPrefix describe the header fallback used
// when the access token cookie is absent.
const (
	AuthorizationHeaderName = "Authorization"
	BearerPrefix            = "Bearer "
)

// Messages of the access guard's 401 answers. Clients refresh their session
// only when a request is rejected with one of these.
const (
	MsgUnauthorizedRequest = "Unauthorized request"
	MsgInvalidAccessToken  = "Invalid access token"
)
