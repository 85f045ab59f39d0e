// Package session persists the CLI's login state (tokens and the signed-in
// username) as key/value pairs in the local SQLite database.
package session

import (
	"context"
)

// Well-known keys.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUsername     = "username"
)

// Repository is a small key/value store. Get returns "" for missing keys.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]string, error)
	Clear(ctx context.Context) error
}
