// Package objectstore issues temporary URLs for stored receipt documents.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/SscSPs/receipt_budget_app/internal/core/ports"
)

// ErrInvalidKey is returned for keys that cannot name a stored object.
var ErrInvalidKey = errors.New("invalid object key")

// SignedURLResolver signs object keys into URLs of the form <baseURL>/<key>?token=<jwt>.
// The file server in front of the bucket checks the HS256 token and that its subject matches the path.
type SignedURLResolver struct {
	baseURL string
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
}

var _ ports.ObjectURLResolver = (*SignedURLResolver)(nil)

// ResolverOption configures a SignedURLResolver.
type ResolverOption func(*SignedURLResolver)

// WithClock overrides the time source used for issue and expiry claims.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *SignedURLResolver) {
		r.now = now
	}
}

// NewSignedURLResolver creates a resolver whose URLs stay valid for ttl.
func NewSignedURLResolver(baseURL, secret string, ttl time.Duration, opts ...ResolverOption) *SignedURLResolver {
	r := &SignedURLResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveURL returns a fetchable URL for key.
func (r *SignedURLResolver) ResolveURL(_ context.Context, key string) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	now := r.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   key,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(r.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("sign object url for %s: %w", key, err)
	}

	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return r.baseURL + "/" + strings.Join(segments, "/") + "?token=" + url.QueryEscape(signed), nil
}

// VerifyToken checks a token issued by ResolveURL and returns the key it grants.
func (r *SignedURLResolver) VerifyToken(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(r.now),
		jwt.WithExpirationRequired(),
	)
	if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return r.secret, nil
	}); err != nil {
		return "", err
	}
	return claims.Subject, nil
}
