// Package auth verifies bearer session tokens and carries the resulting caller in request contexts.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/spigell/smart-hr/internal/errors"
	"github.com/spigell/smart-hr/internal/tools"
)

const (
	Issuer = "smart-hr"

	defaultTokenTTL = 24 * time.Hour
	minSecretLength = 16
)

// Claims extends the registered claims with the caller identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"uid"`
	FirstName string `json:"name,omitempty"`
	Company   string `json:"company,omitempty"`
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	secret = strings.TrimSpace(secret)
	if len(secret) < minSecretLength {
		return nil, errors.Newf("jwt secret must be at least %d characters", minSecretLength)
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for caller.
func (m *Manager) Issue(caller tools.Caller) (string, error) {
	if !caller.Authenticated() {
		return "", errors.NewInvalidRequestError("caller owner id is required")
	}

	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.OwnerID,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		UserID:    caller.OwnerID,
		FirstName: caller.FirstName,
		Company:   caller.Company,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

// Verify validates token and returns its caller. Every failure is ErrUnauthenticated.
func (m *Manager) Verify(token string) (tools.Caller, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Newf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return tools.Caller{}, errors.Wrapf(errors.ErrUnauthenticated, "invalid token: %v", err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return tools.Caller{}, errors.Wrap(errors.ErrUnauthenticated, "invalid token claims")
	}

	return tools.Caller{OwnerID: claims.UserID, FirstName: claims.FirstName, Company: claims.Company}, nil
}

// Authenticate verifies the request's bearer token. Browsers cannot set
// headers on websocket upgrades, so the access_token query parameter is accepted too.
func (m *Manager) Authenticate(r *http.Request) (tools.Caller, error) {
	token := BearerToken(r)
	if token == "" {
		return tools.Caller{}, errors.Wrap(errors.ErrUnauthenticated, "missing bearer token")
	}
	return m.Verify(token)
}

func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}

type callerKey struct{}

func WithCaller(ctx context.Context, caller tools.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom returns the caller stored in ctx, or the zero Caller.
func CallerFrom(ctx context.Context) tools.Caller {
	caller, _ := ctx.Value(callerKey{}).(tools.Caller)
	return caller
}
