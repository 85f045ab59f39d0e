// Package auth issues and verifies the HS256 access and refresh tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/vidtube/internal/common"
)

// Kind selects which key a token is signed and verified with.
type Kind int

const (
	KindAccess Kind = iota
	KindRefresh
)

func (k Kind) String() string {
	if k == KindRefresh {
		return "refresh"
	}
	return "access"
}

// Config carries the two independent signing keys and token lifetimes.
type Config struct {
	AccessSecret  []byte
	AccessTTL     time.Duration
	RefreshSecret []byte
	RefreshTTL    time.Duration
}

// AccessClaims is the identity embedded into an access token.
type AccessClaims struct {
	UserID   string
	Email    string
	Username string
	FullName string
}

// Claims is the JWT payload. Refresh tokens carry only the subject and a
// unique token id.
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	FullName string `json:"fullName,omitempty"`
}

// UserID returns the subject of the token.
func (c *Claims) UserID() string { return c.Subject }

type Issuer struct {
	cfg Config
	now func() time.Time
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("auth: signing secrets must not be empty")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("auth: token lifetimes must be positive")
	}
	return &Issuer{cfg: cfg, now: time.Now}, nil
}

// AccessTTL and RefreshTTL expose lifetimes for cookie Max-Age.
func (i *Issuer) AccessTTL() time.Duration  { return i.cfg.AccessTTL }
func (i *Issuer) RefreshTTL() time.Duration { return i.cfg.RefreshTTL }

func (i *Issuer) IssueAccessToken(c AccessClaims) (string, error) {
	now := i.now()
	return i.sign(KindAccess, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.AccessTTL)),
		},
		Email:    c.Email,
		Username: c.Username,
		FullName: c.FullName,
	})
}

// IssueRefreshToken signs a token carrying only userID. Every call yields a
// distinct token, even within the same second.
func (i *Issuer) IssueRefreshToken(userID string) (string, error) {
	now := i.now()
	return i.sign(KindRefresh, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.RefreshTTL)),
		},
	})
}

func (i *Issuer) sign(kind Kind, claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(i.key(kind))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return s, nil
}

func (i *Issuer) key(kind Kind) []byte {
	if kind == KindRefresh {
		return i.cfg.RefreshSecret
	}
	return i.cfg.AccessSecret
}

// Verify checks signature, algorithm and expiry with the key of kind.
// Every failure is common.ErrInvalidToken; expiry is reported as
// common.ErrTokenExpired, which matches ErrInvalidToken too.
func (i *Issuer) Verify(tokenString string, kind Kind) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.key(kind), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", common.ErrInvalidToken)
	}

	return claims, nil
}
