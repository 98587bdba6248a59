package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "forumhub/internal/errors"
	"forumhub/internal/model"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 24 * time.Hour

// ErrSigningMisconfigured is returned at construction when no usable secret is given.
var ErrSigningMisconfigured = errors.New("token signing secret is not configured")

var signingMethod = jwt.SigningMethodHS512

// Claims represents JWT claims. The subject is the user's email.
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed identity tokens. Signature and expiry are
// checked as separate steps: Validate only proves the token is ours, IsExpired
// decides whether it is still usable.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithTTL overrides DefaultTokenTTL.
func WithTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithIssuer sets the iss claim written and required by the service.
func WithIssuer(issuer string) TokenOption {
	return func(s *TokenService) { s.issuer = issuer }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService creates a token service signing with secret.
func NewTokenService(secret string, opts ...TokenOption) (*TokenService, error) {
	if secret == "" {
		return nil, ErrSigningMisconfigured
	}
	s := &TokenService{
		secret: []byte(secret),
		ttl:    DefaultTokenTTL,
		now:    time.Now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{signingMethod.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for subject with role. Timestamps have second precision, so
// the same inputs at the same instant give the same token.
func (s *TokenService) Issue(subject string, role model.Role) (string, error) {
	issuedAt := s.now().UTC().Truncate(time.Second)
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(signingMethod, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Validate verifies the signature and returns the claims without looking at expiry.
// Tampered, malformed or foreign tokens fail with ErrInvalidSignature.
func (s *TokenService) Validate(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := s.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidSignature, err)
	}
	if !token.Valid || claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, apperrors.ErrInvalidSignature
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, fmt.Errorf("%w: unexpected issuer %q", apperrors.ErrInvalidSignature, claims.Issuer)
	}
	return claims, nil
}

// IsExpired reports whether the expiry instant has been reached.
func (s *TokenService) IsExpired(claims *Claims) bool {
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return !s.now().Before(claims.ExpiresAt.Time)
}

// Authenticate runs both steps and fails with ErrTokenExpired for a genuine but
// stale token.
func (s *TokenService) Authenticate(raw string) (*Claims, error) {
	claims, err := s.Validate(raw)
	if err != nil {
		return nil, err
	}
	if s.IsExpired(claims) {
		return nil, apperrors.ErrTokenExpired
	}
	return claims, nil
}

// ValidateForPrincipal reports whether raw is correctly signed, unexpired and issued
// to expectedSubject, checked in that order.
func (s *TokenService) ValidateForPrincipal(raw, expectedSubject string) bool {
	claims, err := s.Validate(raw)
	if err != nil {
		return false
	}
	if s.IsExpired(claims) {
		return false
	}
	return claims.Subject == expectedSubject
}

// TTL is the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
