package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pagemark/annotate/backend/internal/apperror"
)

const (
	defaultTokenTTL = 60 * time.Minute

	tokenIssuerName   = "annotate-auth"
	tokenAudienceName = "annotate-api"
	opIssueToken      = "auth.issue_token"
	opValidateToken   = "auth.validate_token"
)

var (
	errMissingSigningSecret = errors.New("signing secret must be provided")
	errMissingSubjectClaim  = errors.New("subject claim must be provided")
)

// TokenIssuerConfig configures the bearer-token issuer.
type TokenIssuerConfig struct {
	SigningSecret []byte
	TokenTTL      time.Duration
	Clock         func() time.Time
}

// TokenIssuer signs and validates the bearer tokens handed out at login.
type TokenIssuer struct {
	config TokenIssuerConfig
	clock  func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer with sane defaults.
func NewTokenIssuer(cfg TokenIssuerConfig) *TokenIssuer {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TokenIssuer{
		config: TokenIssuerConfig{
			SigningSecret: cfg.SigningSecret,
			TokenTTL:      ttl,
			Clock:         clock,
		},
		clock: clock,
	}
}

// Issue produces a signed JWT and its expiry (seconds) for the given user id.
func (i *TokenIssuer) Issue(userID string) (string, int64, error) {
	if len(i.config.SigningSecret) == 0 {
		return "", 0, apperror.Internal(opIssueToken, "missing_signing_secret", errMissingSigningSecret)
	}
	if userID == "" {
		return "", 0, apperror.Internal(opIssueToken, "missing_subject", errMissingSubjectClaim)
	}

	now := i.clock().UTC()
	expiresAt := now.Add(i.config.TokenTTL).UTC()

	registered := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    tokenIssuerName,
		Audience:  []string{tokenAudienceName},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, registered)
	signed, err := token.SignedString(i.config.SigningSecret)
	if err != nil {
		return "", 0, apperror.Internal(opIssueToken, "sign_failed", err)
	}

	return signed, int64(expiresAt.Sub(now).Seconds()), nil
}

// Validate ensures the bearer token is well formed and returns the user id.
func (i *TokenIssuer) Validate(tokenString string) (string, error) {
	if len(i.config.SigningSecret) == 0 {
		return "", apperror.Internal(opValidateToken, "missing_signing_secret", errMissingSigningSecret)
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing algorithm: %s", token.Method.Alg())
			}
			return i.config.SigningSecret, nil
		},
		jwt.WithAudience(tokenAudienceName),
		jwt.WithIssuer(tokenIssuerName),
		jwt.WithTimeFunc(i.clock),
	)
	if err != nil {
		return "", apperror.Auth(opValidateToken, "invalid_token", err)
	}
	if claims.Subject == "" {
		return "", apperror.Auth(opValidateToken, "missing_subject", errMissingSubjectClaim)
	}
	return claims.Subject, nil
}
