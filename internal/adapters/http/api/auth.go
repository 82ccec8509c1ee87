package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Roles carried in bearer tokens.
const (
	RoleUser      = "user"
	RoleClinician = "clinician"
)

type authCtxKey int

const claimsKey authCtxKey = 1

// ErrEmptySecret is returned when an authenticator is built without a key.
var ErrEmptySecret = errors.New("jwt secret is empty")

// Claims identify the caller. Users may only read and write their own data;
// clinicians may read any profile and the watchlist.
type Claims struct {
	UID  string `json:"uid"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies HS256 bearer tokens.
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

// NewAuthenticator returns an authenticator keyed by secret.
func NewAuthenticator(secret string) (*Authenticator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrEmptySecret
	}
	return &Authenticator{secret: []byte(secret), now: time.Now}, nil
}

// SignToken issues a token for uid with role, valid for ttl.
func (a *Authenticator) SignToken(uid, role string, ttl time.Duration) (string, error) {
	now := a.now()
	claims := Claims{
		UID:  uid,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse verifies tok and returns its claims.
func (a *Authenticator) Parse(tok string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tok, &Claims{}, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.UID == "" {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

// Require rejects requests without a valid bearer token and stores the
// claims in the request context.
func (a *Authenticator) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		tok, ok := strings.CutPrefix(h, "Bearer ")
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", errors.New("missing bearer token"))
			return
		}
		c, err := a.Parse(strings.TrimSpace(tok))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey, c)))
	}
}

// ClaimsFromContext returns the caller's claims if the request was authenticated.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok
}

// authorizeUser allows access to userID's data. Without auth every caller
// is allowed.
func (s *Server) authorizeUser(ctx context.Context, op, userID string) error {
	if s.auth == nil {
		return nil
	}
	c, ok := ClaimsFromContext(ctx)
	if !ok {
		return NewKind(op, ErrUnauthorized)
	}
	if c.Role == RoleClinician || c.UID == userID {
		return nil
	}
	return WrapKind(op, ErrForbidden, fmt.Errorf("caller %q cannot access user %q", c.UID, userID))
}

func (s *Server) authorizeClinician(ctx context.Context, op string) error {
	if s.auth == nil {
		return nil
	}
	c, ok := ClaimsFromContext(ctx)
	if !ok {
		return NewKind(op, ErrUnauthorized)
	}
	if c.Role != RoleClinician {
		return WrapKind(op, ErrForbidden, errors.New("clinician role required"))
	}
	return nil
}
