package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// HMAC signs and verifies HS256 tokens with a single shared secret. Each
// token family (access, refresh, activation) gets its own instance so a token
// minted for one family never verifies as another.
type HMAC struct {
	secret []byte
	opts   VerifyOptions
}

var (
	_ Signer   = (*HMAC)(nil)
	_ Verifier = (*HMAC)(nil)
)

// NewHMAC creates an HS256 signer/verifier. The secret must not be empty.
func NewHMAC(secret []byte, opts VerifyOptions) (*HMAC, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return &HMAC{secret: secret, opts: opts}, nil
}

// Alg returns the JOSE algorithm name.
func (h *HMAC) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Sign serialises and signs the claims.
func (h *HMAC) Sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
}

// Verify parses token into dst, checking the signature, algorithm, expiry,
// not-before and (if configured) issuer.
func (h *HMAC) Verify(token string, dst jwt.Claims) error {
	parser := jwt.NewParser(h.opts.parserOptions(h.Alg())...)

	parsed, err := parser.ParseWithClaims(token, dst, func(t *jwt.Token) (any, error) {
		return h.secret, nil
	})
	if err != nil {
		return mapError(err)
	}
	if !parsed.Valid {
		return errors.Join(ErrInvalidClaim, errors.New("jwtx: token not valid"))
	}
	return nil
}
