package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidCredential covers every resolution failure: missing header,
// malformed token, bad signature, unusable claims. The boundary maps all of
// them to 401.
var ErrInvalidCredential = errors.New("invalid credential")

// Identity is the caller attribution attached to every mutating operation.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Resolver turns a bearer credential into an Identity. It is injected into
// the HTTP layer so tests can substitute it.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (*Identity, error)
}

type TokenResolver struct {
	secret []byte
	issuer string
}

func NewTokenResolver(secret, issuer string) *TokenResolver {
	return &TokenResolver{secret: []byte(secret), issuer: issuer}
}

func (r *TokenResolver) Resolve(_ context.Context, credential string) (*Identity, error) {
	raw := strings.TrimSpace(credential)
	if after, ok := strings.CutPrefix(raw, "Bearer "); ok {
		raw = strings.TrimSpace(after)
	}
	if raw == "" {
		return nil, ErrInvalidCredential
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if r.issuer != "" {
		opts = append(opts, jwt.WithIssuer(r.issuer))
	}
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return r.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredential
	}
	id, _ := claims["sub"].(string)
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidCredential
	}
	name, _ := claims["name"].(string)
	return &Identity{ID: id, Name: name}, nil
}
