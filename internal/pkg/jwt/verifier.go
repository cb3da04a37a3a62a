// internal/pkg/jwt/verifier.go
package jwt

import (
	"crypto/rsa"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type Verifier struct {
	pub      *rsa.PublicKey
	issuer   string
	audience string
}

func NewVerifier(pub *rsa.PublicKey, issuer, audience string) *Verifier {
	return &Verifier{
		pub:      pub,
		issuer:   issuer,
		audience: audience,
	}
}

// Verify checks the signature, issuer and audience and returns the claims.
func (v *Verifier) Verify(raw string) (*Claims, error) {
	if v.pub == nil {
		return nil, fmt.Errorf("jwt verifier has nil public key")
	}

	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.pub, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Issuer != v.issuer {
		return nil, fmt.Errorf("issuer mismatch: want %s, got %s", v.issuer, claims.Issuer)
	}
	if !claims.VerifyAudience(v.audience, true) {
		return nil, fmt.Errorf("audience mismatch")
	}
	return claims, nil
}

// VerifyAccessToken rejects refresh tokens presented on access endpoints.
func (v *Verifier) VerifyAccessToken(raw string) (*Claims, error) {
	return v.verifyPurpose(raw, "access")
}

// VerifyRefreshToken rejects access tokens presented on the refresh endpoint.
func (v *Verifier) VerifyRefreshToken(raw string) (*Claims, error) {
	return v.verifyPurpose(raw, "refresh")
}

func (v *Verifier) verifyPurpose(raw, purpose string) (*Claims, error) {
	claims, err := v.Verify(raw)
	if err != nil {
		return nil, err
	}
	if claims.SessionPurpose != purpose {
		return nil, fmt.Errorf("token is not a %s token", purpose)
	}
	return claims, nil
}
