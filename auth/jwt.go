package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wombatlabs/wombat/contextx"
)

// Claims is the token payload the JWT verifier understands. Registered
// claims cover expiry and issuer checks; Name and Roles feed the actor
// stored in the request context.
type Claims struct {
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// JWTConfig configures [JWT].
type JWTConfig struct {
	// Secret is the HMAC key used to verify token signatures.
	Secret []byte

	// CookieName, when set, is checked for a token before the
	// Authorization header.
	CookieName string

	// Issuer, when set, must match the token's iss claim.
	Issuer string
}

// JWT returns an AuthFunc that verifies an HS256 bearer token from the
// Authorization header (or the configured cookie) and stores the resulting
// [contextx.Actor] in the request context.
func JWT(cfg JWTConfig) AuthFunc {
	parserOpts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if cfg.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.Issuer))
	}

	return func(ctx context.Context, r *http.Request) (context.Context, error) {
		raw := tokenFromRequest(r, cfg.CookieName)
		if raw == "" {
			return nil, ErrUnauthenticated
		}

		claims := &Claims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return cfg.Secret, nil
		}, parserOpts...)
		if err != nil {
			return nil, fmt.Errorf("auth: invalid token: %w", err)
		}

		actor := contextx.Actor{
			Subject: claims.Subject,
			Name:    claims.Name,
			Roles:   claims.Roles,
		}
		return contextx.WithActor(ctx, actor), nil
	}
}

// NewToken signs a token for the given claims with the HS256 secret. Mostly
// useful for tests and demos; production deployments usually mint tokens in
// a dedicated identity service.
func NewToken(secret []byte, claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// tokenFromRequest pulls the raw token from the cookie (when configured) or
// the Authorization header.
func tokenFromRequest(r *http.Request, cookieName string) string {
	if cookieName != "" {
		if ck, err := r.Cookie(cookieName); err == nil && ck.Value != "" {
			return ck.Value
		}
	}
	h := r.Header.Get("Authorization")
	if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
		return tok
	}
	return ""
}
