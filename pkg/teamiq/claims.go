package teamiq

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is returned by DecodeClaims when the input is not a
// decodable JWT.
var ErrMalformedToken = errors.New("malformed token")

// Claims are the identity fields carried in an access token. The client
// reads them without checking the signature; only the server verifies
// tokens. Decoded claims feed display and route gating, never an
// authorization decision.
type Claims struct {
	Subject   string
	Email     string
	Username  string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// DecodeClaims parses the payload of a compact JWT without verifying its
// signature. Wrong segment count, bad base64 and bad JSON all come back as
// ErrMalformedToken.
func DecodeClaims(token string) (*Claims, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrMalformedToken
	}

	c := &Claims{}
	c.Subject, _ = mapClaims["sub"].(string)
	c.Email, _ = mapClaims["email"].(string)
	c.Username, _ = mapClaims["username"].(string)
	c.Role, _ = mapClaims["role"].(string)

	// Numeric dates arrive as JSON numbers; jwt.MapClaims normalizes them.
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}

	return c, nil
}

// Valid reports whether the claims are usable at the given instant: an
// expiry must be present and strictly in the future.
func (c *Claims) Valid(now time.Time) bool {
	return c != nil && !c.ExpiresAt.IsZero() && c.ExpiresAt.After(now)
}

// ValidToken reports whether a token decodes and is unexpired. Garbage
// input is simply not valid; callers never handle a decode error here.
func ValidToken(token string) bool {
	claims, err := DecodeClaims(token)
	if err != nil {
		return false
	}
	return claims.Valid(time.Now())
}
