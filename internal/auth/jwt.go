package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload issued by the portal's identity provider.
// ScopedEntityIDs lists the deal ids the caller is assigned to; role checks
// alone are not enough for deal-scoped operations.
type Claims struct {
	UserID          uint     `json:"user_id"`
	Roles           []string `json:"roles"`
	ScopedEntityIDs []uint   `json:"scoped_entity_ids"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens against a shared secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// GenerateToken issues a 24h token. Used by tests and local tooling; in
// production tokens come from the identity provider.
func (v *Verifier) GenerateToken(userID uint, roles []string, scopedIDs []uint) (string, error) {
	claims := &Claims{
		UserID:          userID,
		Roles:           roles,
		ScopedEntityIDs: scopedIDs,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// ParseAndValidate validates the token and returns its claims.
func (v *Verifier) ParseAndValidate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, fmt.Errorf("could not extract claims")
	}
	return claims, nil
}
