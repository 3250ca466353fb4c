package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expiryLeeway is how long before the exp claim a token is treated as
// expiring, so the refresh happens before a request fails mid-flight.
const expiryLeeway = 60 * time.Second

// expiresSoon inspects the token's exp claim without verifying the
// signature; verification is the remote store's job, this side only decides
// when to refresh. Tokens that cannot be parsed or carry no exp claim are
// treated as expiring so the refresh path decides what to do with them.
func expiresSoon(token string, now time.Time) bool {
	if token == "" {
		return true
	}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	parsed, _, err := parser.ParseUnverified(token, &jwt.RegisteredClaims{})
	if err != nil {
		return true
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.ExpiresAt == nil {
		return true
	}
	return !claims.ExpiresAt.Time.After(now.Add(expiryLeeway))
}
