package domain

import "time"

// TokenPair is what a successful login or refresh hands back. Both tokens
// travel as cookies; the access token is also echoed in the response body.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"-"`
	AccessExpiresAt  time.Time `json:"-"`
	RefreshExpiresAt time.Time `json:"-"`
}
