package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVendorTokens_RoundTrip(t *testing.T) {
	tokens, err := NewVendorTokens("s3cret", time.Hour)
	require.NoError(t, err)

	signed, err := tokens.Issue(7)
	require.NoError(t, err)

	claims, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.VendorID)
	assert.Equal(t, "vendor:7", claims.Subject)
}

func TestVendorTokens_Rejects(t *testing.T) {
	tokens, err := NewVendorTokens("s3cret", time.Hour)
	require.NoError(t, err)

	t.Run("missing", func(t *testing.T) {
		_, err := tokens.Parse("")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := NewVendorTokens("different", time.Hour)
		require.NoError(t, err)
		signed, err := other.Issue(7)
		require.NoError(t, err)
		_, err = tokens.Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := time.Now().Add(-2 * time.Hour)
		stale, err := NewVendorTokens("s3cret", time.Hour)
		require.NoError(t, err)
		signed, err := stale.WithClock(func() time.Time { return past }).Issue(7)
		require.NoError(t, err)
		_, err = tokens.Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, VendorClaims{VendorID: 7}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = tokens.Parse(unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("no vendor claim", func(t *testing.T) {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("s3cret"))
		require.NoError(t, err)
		_, err = tokens.Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewVendorTokens_RequiresSecret(t *testing.T) {
	_, err := NewVendorTokens(" ", time.Hour)
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestExtractBearer(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ExtractBearer(req))

	req.Header.Set("Authorization", "Basic user:pass")
	assert.Empty(t, ExtractBearer(req))

	req.Header.Set("Authorization", "Bearer abc.def")
	assert.Equal(t, "abc.def", ExtractBearer(req))
}
