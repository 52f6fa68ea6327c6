package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the signed session claim. TenantName is absent for superadmins
// and for master users without a membership.
type Claims struct {
	UserID     uint            `json:"userId"`
	Email      string          `json:"email"`
	Role       models.UserRole `json:"role"`
	TenantName *string         `json:"tenantName,omitempty"`
	TenantID   *int            `json:"tenantId,omitempty"`
	jwt.RegisteredClaims
}

// HasTenant reports whether requests carrying these claims can be routed to a tenant store
func (c *Claims) HasTenant() bool {
	return c.TenantName != nil && *c.TenantName != ""
}

// Issuer signs and verifies session claims with a single HMAC key
type Issuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewIssuer(signingKey string, ttl time.Duration) (*Issuer, error) {
	if signingKey == "" {
		return nil, errors.New("signing key is required")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &Issuer{key: []byte(signingKey), ttl: ttl, now: time.Now}, nil
}

// Issue signs claims with HS256, overwriting the registered time fields
func (i *Issuer) Issue(claims Claims) (string, error) {
	now := i.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(claims.UserID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token, rejecting anything that is not HS256 signed with our key or is expired
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
