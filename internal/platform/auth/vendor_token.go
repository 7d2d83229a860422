package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid vendor token")
	ErrNoSecret     = errors.New("vendor token secret is not configured")
)

// DefaultTokenTTL bounds how long a kitchen terminal stays signed in.
const DefaultTokenTTL = 12 * time.Hour

// VendorClaims identifies the vendor a terminal acts for.
type VendorClaims struct {
	VendorID int64 `json:"vendor_id"`
	jwt.RegisteredClaims
}

// VendorTokens issues and verifies HS256 vendor tokens.
type VendorTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewVendorTokens(secret string, ttl time.Duration) (*VendorTokens, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrNoSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &VendorTokens{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// WithClock overrides the time source used for issuing and validation.
func (v *VendorTokens) WithClock(now func() time.Time) *VendorTokens {
	if now != nil {
		v.now = now
	}
	return v
}

func (v *VendorTokens) Issue(vendorID int64) (string, error) {
	if vendorID <= 0 {
		return "", fmt.Errorf("%w: vendor id must be positive", ErrInvalidToken)
	}
	now := v.now()
	claims := VendorClaims{
		VendorID: vendorID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("vendor:%d", vendorID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *VendorTokens) Parse(tokenStr string) (*VendorClaims, error) {
	if tokenStr == "" {
		return nil, ErrMissingToken
	}
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&VendorClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return v.secret, nil
		},
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*VendorClaims)
	if !ok || !token.Valid || claims.VendorID <= 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExtractBearer returns the token of an "Authorization: Bearer" header.
func ExtractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}
