package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/lms/internal/lms/domain"
	"github.com/aussiebroadwan/lms/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultActivationTTL bounds how long an emailed code stays usable.
	DefaultActivationTTL = 5 * time.Minute

	// DefaultSessionTTL is how long a session snapshot lives without a refresh.
	DefaultSessionTTL = 7 * 24 * time.Hour
)

// TokenConfig holds the signing secrets and lifetimes. It is built once at
// startup and handed to NewTokenIssuer.
type TokenConfig struct {
	Issuer string

	AccessSecret     []byte
	RefreshSecret    []byte
	ActivationSecret []byte

	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ActivationTTL time.Duration

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// Validate reports missing secrets. Zero lifetimes are filled with defaults
// by NewTokenIssuer.
func (c TokenConfig) Validate() error {
	switch {
	case len(c.AccessSecret) == 0:
		return errors.New("token config: access secret is required")
	case len(c.RefreshSecret) == 0:
		return errors.New("token config: refresh secret is required")
	case len(c.ActivationSecret) == 0:
		return errors.New("token config: activation secret is required")
	}
	return nil
}

// ActivationClaims carry a pending registration and its code.
type ActivationClaims struct {
	User           domain.PendingUser `json:"user"`
	ActivationCode string             `json:"activationCode"`

	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies the three token families. Each family has
// its own secret so a token of one kind never verifies as another.
type TokenIssuer struct {
	cfg TokenConfig

	access     *jwtx.HMAC
	refresh    *jwtx.HMAC
	activation *jwtx.HMAC
}

// NewTokenIssuer validates cfg and builds the per-family signers.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = jwtx.DefaultAccessTokenTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = jwtx.DefaultRefreshTokenTTL
	}
	if cfg.ActivationTTL <= 0 {
		cfg.ActivationTTL = DefaultActivationTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	opts := jwtx.VerifyOptions{Issuer: cfg.Issuer, Now: cfg.Now}

	access, err := jwtx.NewHMAC(cfg.AccessSecret, opts)
	if err != nil {
		return nil, fmt.Errorf("access signer: %w", err)
	}
	refresh, err := jwtx.NewHMAC(cfg.RefreshSecret, opts)
	if err != nil {
		return nil, fmt.Errorf("refresh signer: %w", err)
	}
	activation, err := jwtx.NewHMAC(cfg.ActivationSecret, opts)
	if err != nil {
		return nil, fmt.Errorf("activation signer: %w", err)
	}

	return &TokenIssuer{
		cfg:        cfg,
		access:     access,
		refresh:    refresh,
		activation: activation,
	}, nil
}

// AccessTTL returns the configured access token lifetime.
func (t *TokenIssuer) AccessTTL() time.Duration { return t.cfg.AccessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (t *TokenIssuer) RefreshTTL() time.Duration { return t.cfg.RefreshTTL }

// Now returns the issuer's clock reading.
func (t *TokenIssuer) Now() time.Time { return t.cfg.Now() }

// IssueAccessToken signs {id} with the access secret.
func (t *TokenIssuer) IssueAccessToken(userID string) (string, time.Time, error) {
	return t.issue(t.access, userID, t.cfg.AccessTTL)
}

// IssueRefreshToken signs {id} with the refresh secret.
func (t *TokenIssuer) IssueRefreshToken(userID string) (string, time.Time, error) {
	return t.issue(t.refresh, userID, t.cfg.RefreshTTL)
}

// IssuePair issues a fresh access and refresh token for userID.
func (t *TokenIssuer) IssuePair(userID string) (domain.TokenPair, error) {
	access, accessExp, err := t.IssueAccessToken(userID)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, refreshExp, err := t.IssueRefreshToken(userID)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (t *TokenIssuer) issue(signer *jwtx.HMAC, userID string, ttl time.Duration) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, ErrInvalidRequest
	}
	claims := jwtx.NewClaims(userID, t.cfg.Issuer, ttl, t.cfg.Now())
	token, err := signer.Sign(claims)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, claims.ExpiresAtTime(), nil
}

// VerifyAccessToken decodes an access token. Expired tokens yield
// ErrTokenExpired, anything else wrong yields ErrInvalidToken.
func (t *TokenIssuer) VerifyAccessToken(token string) (jwtx.Claims, error) {
	return t.verify(t.access, token)
}

// VerifyRefreshToken decodes a refresh token with the same error contract as
// VerifyAccessToken.
func (t *TokenIssuer) VerifyRefreshToken(token string) (jwtx.Claims, error) {
	return t.verify(t.refresh, token)
}

func (t *TokenIssuer) verify(v *jwtx.HMAC, token string) (jwtx.Claims, error) {
	var claims jwtx.Claims
	if token == "" {
		return jwtx.Claims{}, ErrInvalidToken
	}
	if err := v.Verify(token, &claims); err != nil {
		return jwtx.Claims{}, classify(err)
	}
	if claims.UserID == "" {
		return jwtx.Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// IssueActivationToken signs the pending user and code with the activation
// secret.
func (t *TokenIssuer) IssueActivationToken(pending domain.PendingUser, code string) (string, error) {
	now := t.cfg.Now()
	claims := ActivationClaims{
		User:           pending,
		ActivationCode: code,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.ActivationTTL)),
			ID:        jwtx.NewJTI(),
		},
	}
	token, err := t.activation.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("sign activation token: %w", err)
	}
	return token, nil
}

// VerifyActivationToken decodes an activation ticket.
func (t *TokenIssuer) VerifyActivationToken(token string) (ActivationClaims, error) {
	var claims ActivationClaims
	if token == "" {
		return ActivationClaims{}, ErrInvalidToken
	}
	if err := t.activation.Verify(token, &claims); err != nil {
		return ActivationClaims{}, classify(err)
	}
	return claims, nil
}

// classify collapses jwtx failures into the two kinds callers branch on.
func classify(err error) error {
	if errors.Is(err, jwtx.ErrExpired) {
		return ErrTokenExpired
	}
	return ErrInvalidToken
}
