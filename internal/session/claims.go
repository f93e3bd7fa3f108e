// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// =============================================================================
// TOKEN CLAIMS
// =============================================================================

// TokenClaims are the registered claims read from a bearer token. The
// signature is NOT verified; the server remains the only authority.
// They are used for display and to skip a rehydration that cannot succeed.
type TokenClaims struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// ParseClaims decodes the payload of a JWT without verifying it.
// The backend encodes "sub" as either a string or a number.
func ParseClaims(token string) (TokenClaims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithJSONNumber())
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return TokenClaims{}, fmt.Errorf("parse token claims: %w", err)
	}

	var tc TokenClaims
	switch sub := claims["sub"].(type) {
	case string:
		tc.Subject = sub
	case json.Number:
		tc.Subject = sub.String()
	}
	tc.ExpiresAt = numericTime(claims["exp"])
	tc.IssuedAt = numericTime(claims["iat"])
	return tc, nil
}

// HasExpiry reports whether the token carries an exp claim.
func (c TokenClaims) HasExpiry() bool { return !c.ExpiresAt.IsZero() }

// Expired reports whether exp is at or before now. Tokens without exp never expire.
func (c TokenClaims) Expired(now time.Time) bool {
	return c.HasExpiry() && !now.Before(c.ExpiresAt)
}

// Remaining is the time left before expiry, zero once expired.
func (c TokenClaims) Remaining(now time.Time) time.Duration {
	if !c.HasExpiry() || c.Expired(now) {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

func numericTime(v interface{}) time.Time {
	var secs float64
	switch n := v.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return time.Time{}
		}
		secs = f
	case float64:
		secs = n
	default:
		return time.Time{}
	}
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC()
}
