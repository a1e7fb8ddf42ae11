package api

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// UserSubject returns the user ID (the "sub" claim) of the stored
// access token. The token is decoded without signature verification:
// the client has no verification key and only needs its own identity
// for display decisions like the creator check on live results.
func (c *Client) UserSubject() (string, error) {
	pair, ok := c.store.Get()
	if !ok {
		return "", ErrUnauthorized
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(pair.AccessToken, claims); err != nil {
		return "", fmt.Errorf("api: decode access token: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("api: access token has no subject")
	}
	return sub, nil
}
