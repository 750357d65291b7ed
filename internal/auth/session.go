// Package auth verifies session tokens at the edge. Token issuance lives in
// the identity service; the gateway only checks signatures and extracts the
// principal, and it always fails closed: a request with no valid session
// never reaches the application.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Principal is the authenticated caller attached to the request context.
// AuthEpoch is the epoch the session was issued under; the tenant bumps its
// authVersion to invalidate every session with a lower epoch.
type Principal struct {
	UserID    uuid.UUID
	Role      Role
	OrgID     string
	AuthEpoch int
}

// SessionClaims is the gateway's view of the session JWT payload.
type SessionClaims struct {
	Role      string `json:"role"`
	OrgID     string `json:"orgId"`
	AuthEpoch int    `json:"authEpoch"`
	jwt.RegisteredClaims
}

// Verifier checks session tokens with the shared HMAC secret.
type Verifier struct {
	secret     []byte
	cookieName string
}

func NewVerifier(secret []byte, cookieName string) *Verifier {
	return &Verifier{secret: secret, cookieName: cookieName}
}

// FromRequest extracts and verifies the session token from the request's
// session cookie, falling back to an Authorization bearer token for API
// clients. Any failure is an authentication failure.
func (v *Verifier) FromRequest(ctx context.Context, r *http.Request) (*Principal, error) {
	tokenString := ""
	if c, err := r.Cookie(v.cookieName); err == nil {
		tokenString = c.Value
	}
	if tokenString == "" {
		tokenString = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if tokenString == "" {
		return nil, fmt.Errorf("missing session token")
	}
	return v.Verify(ctx, tokenString)
}

// Verify parses and validates the token and builds the principal.
func (v *Verifier) Verify(_ context.Context, tokenString string) (*Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}

	return &Principal{
		UserID:    userID,
		Role:      ParseRole(claims.Role),
		OrgID:     claims.OrgID,
		AuthEpoch: claims.AuthEpoch,
	}, nil
}
