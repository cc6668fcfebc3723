package teamiq

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// signTestToken mints an HS256 token. The decoder ignores signatures, so the
// key is arbitrary.
func signTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestDecodeClaims(t *testing.T) {
	t.Parallel()

	issued := time.Now().Add(-time.Minute)
	expires := time.Now().Add(15 * time.Minute)
	token := signTestToken(t, jwt.MapClaims{
		"sub":      "user-1",
		"email":    "alice@example.com",
		"username": "alice",
		"role":     "engineer",
		"iat":      issued.Unix(),
		"exp":      expires.Unix(),
	})

	claims, err := DecodeClaims(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "alice@example.com", claims.Email)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, "engineer", claims.Role)
	require.Equal(t, issued.Unix(), claims.IssuedAt.Unix())
	require.Equal(t, expires.Unix(), claims.ExpiresAt.Unix())
}

func TestDecodeClaimsMalformed(t *testing.T) {
	t.Parallel()

	for name, token := range map[string]string{
		"empty":         "",
		"one segment":   "justonepart",
		"two segments":  "abc.def",
		"bad base64":    "!!!.###.???",
		"not json":      "aGVsbG8.aGVsbG8.aGVsbG8",
		"four segments": "a.b.c.d",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeClaims(token)
			require.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}

func TestValidToken(t *testing.T) {
	t.Parallel()

	future := signTestToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	expired := signTestToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	noExpiry := signTestToken(t, jwt.MapClaims{
		"sub": "user-1",
	})

	require.True(t, ValidToken(future))
	require.False(t, ValidToken(expired))
	require.False(t, ValidToken(noExpiry))
	require.False(t, ValidToken("not-a-token"))
}

func TestClaimsValidIsStrict(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	c := &Claims{ExpiresAt: now}
	require.False(t, c.Valid(now), "expiry equal to now must not be valid")
	require.True(t, c.Valid(now.Add(-time.Second)))
}
