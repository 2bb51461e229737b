package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// TokenScope narrows what a signed token may be used for.
type TokenScope string

const (
	ScopeAccess       TokenScope = "access"
	ScopeEmailConfirm TokenScope = "email_confirm"
)

var (
	// ErrTokenInvalid covers bad signatures, malformed structure and
	// missing subjects.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired reports a structurally valid token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	confirmTTL time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, accessTTL, confirmTTL time.Duration) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if confirmTTL <= 0 {
		confirmTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), accessTTL: accessTTL, confirmTTL: confirmTTL}
}

// Claims describes the JWT payload for both token kinds. Subject carries a
// username for access tokens and an email for confirmation tokens.
type Claims struct {
	Scope TokenScope `json:"scope"`
	jwt.RegisteredClaims
}

// IssueAccessToken signs a short-lived session token for the username.
// A non-positive ttl falls back to the configured default.
func (tm *TokenManager) IssueAccessToken(username string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = tm.accessTTL
	}
	return tm.issue(username, ScopeAccess, ttl)
}

// IssueConfirmationToken signs a long-lived email ownership token. The
// subject is the email address, not the username.
func (tm *TokenManager) IssueConfirmationToken(email string) (string, time.Time, error) {
	return tm.issue(email, ScopeEmailConfirm, tm.confirmTTL)
}

func (tm *TokenManager) issue(subject string, scope TokenScope, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Parse validates signature and expiry and returns claims. Expired tokens
// fail with ErrTokenExpired; every other failure collapses to ErrTokenInvalid.
func (tm *TokenManager) Parse(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
