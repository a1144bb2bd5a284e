package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultSecret = "smart-work-assistant-change-me"
	issuer        = "smart-work-assistant"

	audienceSession = "session"
	audienceState   = "oauth-state"
)

var secret = []byte(defaultSecret)

// SetSecret configures the JWT signing secret (call on startup).
func SetSecret(s string) {
	if s != "" {
		secret = []byte(s)
	}
}

// UsingDefaultSecret reports whether SetSecret was never given a value.
func UsingDefaultSecret() bool {
	return string(secret) == defaultSecret
}

// Claims is the session payload.
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	jwtlib.RegisteredClaims
}

// StateClaims carries the OAuth round-trip state.
type StateClaims struct {
	CallbackURL string `json:"cb,omitempty"`
	jwtlib.RegisteredClaims
}

// Sign creates a session token for the given user.
func Sign(userID, email, name string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("jwt: user id is required")
	}
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Name:   name,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			Audience:  jwtlib.ClaimStrings{audienceSession},
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(secret)
}

// Parse validates a session token and returns the claims.
func Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if err := parse(tokenStr, claims, audienceSession); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// SignState creates a short-lived OAuth state token with a random id.
func SignState(callbackURL string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := StateClaims{
		CallbackURL: callbackURL,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Audience:  jwtlib.ClaimStrings{audienceState},
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(secret)
}

// ParseState validates an OAuth state token.
func ParseState(tokenStr string) (*StateClaims, error) {
	claims := &StateClaims{}
	if err := parse(tokenStr, claims, audienceState); err != nil {
		return nil, err
	}
	return claims, nil
}

func parse(tokenStr string, claims jwtlib.Claims, audience string) error {
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwtlib.WithAudience(audience), jwtlib.WithIssuer(issuer), jwtlib.WithExpirationRequired())
	if err != nil {
		return err
	}
	if !token.Valid {
		return fmt.Errorf("invalid token")
	}
	return nil
}
