// Package auth signs the access tokens the staff routes accept.  Tokens
// are normally issued by the venue's account service; this package lets
// tooling and tests mint compatible ones with the shared secret.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed HS256 JWT and its expiry.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// Claims identify the token holder.
type Claims struct {
	UserID string
	Email  string
	Role   string
}

// NewAccessToken signs claims with secret for ttl.  The token carries
// sub, email, role, iat and exp.
func NewAccessToken(secret string, c Claims, ttl time.Duration) (AccessToken, error) {
	if secret == "" {
		return AccessToken{}, errors.New("empty signing secret")
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   c.UserID,
		"email": c.Email,
		"role":  c.Role,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	})
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
