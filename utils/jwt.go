package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const TokenTypeAdmin = "admin"

var ErrInvalidToken = errors.New("invalid token")

// AdminClaims is the payload carried by every administrator token.
type AdminClaims struct {
	AdminID uint   `json:"id"`
	Email   string `json:"email"`
	Rol     string `json:"rol"`
	Tipo    string `json:"tipo"`
	jwt.RegisteredClaims
}

// NewAdminToken signs an HS256 token for an administrator.
func NewAdminToken(secret string, adminID uint, email, rol string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := AdminClaims{
		AdminID: adminID,
		Email:   email,
		Rol:     rol,
		Tipo:    TokenTypeAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseAdminToken verifies signature, algorithm, expiry and token type.
func ParseAdminToken(secret, raw string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Tipo != TokenTypeAdmin || claims.AdminID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
