// Package auth issues and verifies HS256 player tokens. Sessions created
// with a valid token report their scores under the token's player id.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultTTL = 14 * 24 * time.Hour

// Claims carried by a player token.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Player is the authenticated caller.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Issuer signs and verifies tokens with one shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithTTL sets how long issued tokens stay valid.
func WithTTL(ttl time.Duration) Option {
	return func(i *Issuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// WithIssuer sets the iss claim.
func WithIssuer(name string) Option {
	return func(i *Issuer) { i.issuer = name }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// NewIssuer returns an issuer for secret.
func NewIssuer(secret string, opts ...Option) (*Issuer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	i := &Issuer{secret: []byte(secret), ttl: defaultTTL, issuer: "wordsort", now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue signs a token for playerID. An empty id gets a fresh one.
func (i *Issuer) Issue(playerID, name string) (string, Player, time.Time, error) {
	if playerID == "" {
		playerID = uuid.NewString()
	}
	now := i.now()
	exp := now.Add(i.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	ss, err := tok.SignedString(i.secret)
	if err != nil {
		return "", Player{}, time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return ss, Player{ID: playerID, Name: name}, exp, nil
}

// Verify parses and validates a token.
func (i *Issuer) Verify(token string) (Player, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !parsed.Valid {
		return Player{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Player{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return Player{ID: claims.Subject, Name: claims.Name}, nil
}

type ctxKey struct{}

// WithPlayer stores p in ctx.
func WithPlayer(ctx context.Context, p Player) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PlayerFrom returns the player stored by the middleware.
func PlayerFrom(ctx context.Context) (Player, bool) {
	p, ok := ctx.Value(ctxKey{}).(Player)
	return p, ok
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Middleware attaches the verified player to the request context. Requests
// without a token pass through anonymously; an invalid token is rejected
// through onError.
func (i *Issuer) Middleware(onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := BearerToken(r)
			if tok == "" {
				next.ServeHTTP(w, r)
				return
			}
			p, err := i.Verify(tok)
			if err != nil {
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPlayer(r.Context(), p)))
		})
	}
}
