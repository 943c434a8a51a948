// Package auth validates optional Neon Auth tokens so a signed-in player's
// first name can seed their display name.
package auth

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// Identity is what the game uses from a validated token.
type Identity struct {
	UserID    string
	FirstName string
}

// Validator checks tokens against one Neon Auth deployment. The JWKS is
// fetched once and refreshed in the background by keyfunc.
type Validator struct {
	issuer  string
	keyfunc jwt.Keyfunc
}

// NewValidator prepares a Validator for baseURL (e.g. NEON_AUTH_BASE_URL).
func NewValidator(baseURL string) (*Validator, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("NEON_AUTH_BASE_URL is not set")
	}
	issuer, err := issuerFromBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	jwks, err := keyfunc.NewDefault([]string{strings.TrimRight(baseURL, "/") + "/.well-known/jwks.json"})
	if err != nil {
		return nil, fmt.Errorf("loading JWKS: %w", err)
	}
	return &Validator{issuer: issuer, keyfunc: jwks.Keyfunc}, nil
}

func issuerFromBaseURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid base URL %q", baseURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// Validate parses tokenString, checks signature and issuer, and returns the
// caller's identity.
func (v *Validator) Validate(tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, v.keyfunc,
		jwt.WithIssuer(v.issuer),
		jwt.WithValidMethods([]string{"EdDSA"}))
	if err != nil {
		return Identity{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("invalid token claims")
	}
	return Identity{
		UserID:    UserIDFromClaims(claims),
		FirstName: FirstNameFromClaims(claims),
	}, nil
}

// FirstNameFromClaims returns the first word of the "name" claim, or "" if
// there is none.
func FirstNameFromClaims(claims jwt.MapClaims) string {
	name, _ := claims["name"].(string)
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// UserIDFromClaims returns the user id from claims ("sub" or "id").
func UserIDFromClaims(claims jwt.MapClaims) string {
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub
	}
	if id, ok := claims["id"].(string); ok && id != "" {
		return id
	}
	return ""
}
