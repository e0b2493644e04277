package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/fleetops/fleetops/internal/rbac"
)

var (
	// ErrInvalidToken indicates a bearer token that failed verification.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrSessionNotFound indicates an unknown or expired session id.
	ErrSessionNotFound = errors.New("auth: session not found")
)

const (
	claimUserID   = "user_id"
	claimRole     = "role"
	claimName     = "name"
	claimVendorID = "vendor_id"
)

// TokenService verifies HS256 tokens minted by the login service and turns
// their claims into a principal.
type TokenService struct {
	key    jwk.Key
	issuer string
	expiry time.Duration
}

// NewTokenService builds a TokenService around secret.
func NewTokenService(secret []byte, issuer string, expiry time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: empty jwt secret")
	}
	key, err := jwk.FromRaw(secret)
	if err != nil {
		return nil, fmt.Errorf("auth: build jwk: %w", err)
	}
	if err := key.Set(jwk.AlgorithmKey, jwa.HS256); err != nil {
		return nil, fmt.Errorf("auth: set algorithm: %w", err)
	}
	return &TokenService{key: key, issuer: issuer, expiry: expiry}, nil
}

// Issue signs a token for p. Production tokens come from the login service;
// this exists for tooling and tests.
func (s *TokenService) Issue(_ context.Context, p rbac.Principal) (string, error) {
	now := time.Now()
	builder := jwt.NewBuilder().
		Issuer(s.issuer).
		Subject(strconv.FormatInt(p.ID, 10)).
		IssuedAt(now).
		Expiration(now.Add(s.expiry)).
		Claim(claimUserID, p.ID).
		Claim(claimRole, string(p.Role)).
		Claim(claimName, p.DisplayName)
	if p.VendorID != nil {
		builder = builder.Claim(claimVendorID, *p.VendorID)
	}
	token, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("auth: build token: %w", err)
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, s.key))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return string(signed), nil
}

// Verify checks signature, issuer and expiry and decodes the principal.
func (s *TokenService) Verify(_ context.Context, raw string) (rbac.Principal, error) {
	opts := []jwt.ParseOption{jwt.WithKey(jwa.HS256, s.key), jwt.WithValidate(true)}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	token, err := jwt.Parse([]byte(raw), opts...)
	if err != nil {
		return rbac.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var p rbac.Principal
	id, ok := token.Get(claimUserID)
	if !ok {
		return rbac.Principal{}, fmt.Errorf("%w: missing %s", ErrInvalidToken, claimUserID)
	}
	if p.ID, err = toInt64(id); err != nil {
		return rbac.Principal{}, fmt.Errorf("%w: %s: %v", ErrInvalidToken, claimUserID, err)
	}

	rawRole, _ := token.Get(claimRole)
	roleName, _ := rawRole.(string)
	if p.Role, err = rbac.ParseRole(roleName); err != nil {
		return rbac.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if name, ok := token.Get(claimName); ok {
		p.DisplayName, _ = name.(string)
	}
	if v, ok := token.Get(claimVendorID); ok && v != nil {
		vendorID, err := toInt64(v)
		if err != nil {
			return rbac.Principal{}, fmt.Errorf("%w: %s: %v", ErrInvalidToken, claimVendorID, err)
		}
		p.VendorID = &vendorID
	}
	return p, nil
}

// toInt64 accepts the shapes a numeric claim takes after JSON decoding.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
