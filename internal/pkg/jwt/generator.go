// internal/pkg/jwt/generator.go
package jwt

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

type Generator struct {
	priv     *rsa.PrivateKey
	issuer   string
	audience string
	kid      string // key id for rotation
	Ttl      time.Duration
}

func NewGenerator(priv *rsa.PrivateKey, issuer, audience, kid string, ttl time.Duration) *Generator {
	return &Generator{
		priv:     priv,
		issuer:   issuer,
		audience: audience,
		kid:      kid,
		Ttl:      ttl,
	}
}

// Generate creates a signed token for a staff member and returns the token
// together with its JTI.
func (g *Generator) Generate(staffID int64, roles []string, device, purpose string, ttl time.Duration) (string, string, error) {
	if g.priv == nil {
		return "", "", fmt.Errorf("jwt generator has nil private key")
	}

	now := time.Now()
	jti := ulid.Make().String()
	if ttl <= 0 {
		ttl = g.Ttl
	}

	claims := &Claims{
		StaffID:        staffID,
		Roles:          roles,
		Device:         device,
		SessionPurpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   fmt.Sprintf("%d", staffID),
			Audience:  []string{g.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        jti,
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if g.kid != "" {
		tok.Header["kid"] = g.kid
	}

	signed, err := tok.SignedString(g.priv)
	return signed, jti, err
}

// GenerateAccessToken issues a short-lived token carrying the staff roles.
func (g *Generator) GenerateAccessToken(staffID int64, roles []string, device string) (string, string, error) {
	return g.Generate(staffID, roles, device, "access", g.Ttl)
}

// RefreshTTL is the lifetime of refresh tokens and their sessions.
const RefreshTTL = 60 * 24 * time.Hour

// GenerateRefreshToken generates a refresh token with a longer TTL. Refresh
// tokens carry no roles, they are only exchanged for new access tokens.
func (g *Generator) GenerateRefreshToken(staffID int64, device string) (string, string, error) {
	return g.Generate(staffID, nil, device, "refresh", RefreshTTL)
}
