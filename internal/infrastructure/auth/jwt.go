package auth

import (
	"errors"
	"time"

	"github.com/erp/pos/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUserID    = errors.New("missing subject in claims")
)

// Claims identifies the operator behind a request. Subject carries the user ID.
type Claims struct {
	jwt.RegisteredClaims
	BranchID string `json:"branch_id,omitempty"`
	Username string `json:"username,omitempty"`
}

// UserID parses the subject as a UUID
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// Branch parses the branch claim; ok is false when the claim is absent
func (c *Claims) Branch() (id uuid.UUID, ok bool, err error) {
	if c.BranchID == "" {
		return uuid.Nil, false, nil
	}
	id, err = uuid.Parse(c.BranchID)
	return id, err == nil, err
}

// TokenVerifier checks HS256 bearer tokens issued by the identity service
type TokenVerifier struct {
	secret []byte
	issuer string
}

// NewTokenVerifier creates a verifier from auth settings
func NewTokenVerifier(cfg config.AuthConfig) *TokenVerifier {
	return &TokenVerifier{secret: []byte(cfg.JWTSecret), issuer: cfg.Issuer}
}

// Verify parses and validates a token and returns its claims
func (v *TokenVerifier) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, ErrInvalidClaims
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.Subject == "" {
		return nil, ErrMissingUserID
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrInvalidClaims
	}
	if _, _, err := claims.Branch(); err != nil {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// Sign issues a token for the given operator. Used by tooling and tests.
func (v *TokenVerifier) Sign(userID uuid.UUID, branchID *uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    v.issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if branchID != nil {
		claims.BranchID = branchID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
