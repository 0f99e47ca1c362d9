package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/riteshkumar/bank-ledger/internal/errors"
)

const (
	roleUser  = "user"
	roleAdmin = "admin"
)

type claims struct {
	Role      string `json:"role"`
	AccountID string `json:"account_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and parses signed session tokens that carry a resolved
// Principal. It is the identity-resolution collaborator for the HTTP layer.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the given principal.
func (t *TokenIssuer) Issue(p Principal) (string, error) {
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	switch v := p.(type) {
	case User:
		c.Role = roleUser
		c.AccountID = v.AccountID
		c.Subject = v.AccountID
	case Administrator:
		c.Role = roleAdmin
		c.Subject = v.Name
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(t.secret)
}

// Parse validates a token string and returns the Principal it carries.
// Any failure (bad signature, expiry, malformed claims) resolves to
// ErrUnauthenticated: the caller simply has no identity.
func (t *TokenIssuer) Parse(tokenString string) (Principal, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.ErrUnauthenticated
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.ErrUnauthenticated
	}

	switch c.Role {
	case roleUser:
		if c.AccountID == "" {
			return nil, errors.ErrUnauthenticated
		}
		return User{AccountID: c.AccountID}, nil
	case roleAdmin:
		return Administrator{Name: c.Subject}, nil
	}
	return nil, errors.ErrUnauthenticated
}
