package middleware

import (
	"errors"
	"strings"

	"github.com/erp/pos/internal/infrastructure/auth"
	"github.com/erp/pos/internal/infrastructure/logger"
	"github.com/erp/pos/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Actor context keys and headers
const (
	ActorKey       = "actor"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
	UserIDHeader   = "X-User-ID"
	BranchIDHeader = "X-Branch-ID"
)

// Actor is the operator a request acts for. BranchID is set when the
// token or headers name one.
type Actor struct {
	UserID   uuid.UUID
	BranchID *uuid.UUID
}

// ActorConfig configures actor resolution.
// With a nil Verifier the actor comes from the X-User-ID header.
type ActorConfig struct {
	Verifier  *auth.TokenVerifier
	SkipPaths []string
	Logger    *zap.Logger
}

// ResolveActor identifies the caller. Bearer tokens are required when a
// verifier is configured; otherwise the X-User-ID header is trusted and optional.
func ResolveActor(cfg ActorConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, p := range cfg.SkipPaths {
			if c.Request.URL.Path == p {
				c.Next()
				return
			}
		}

		var (
			actor *Actor
			err   error
		)
		if cfg.Verifier != nil {
			actor, err = actorFromToken(c, cfg.Verifier)
		} else {
			actor, err = actorFromHeaders(c)
		}
		if err != nil {
			handleAuthError(c, cfg, err)
			return
		}

		if actor != nil {
			c.Set(ActorKey, *actor)
			branch := ""
			if actor.BranchID != nil {
				branch = actor.BranchID.String()
			}
			c.Request = c.Request.WithContext(logger.WithActor(c.Request.Context(), actor.UserID.String(), branch))
		}
		c.Next()
	}
}

var errMissingToken = errors.New("missing bearer token")

func actorFromToken(c *gin.Context, verifier *auth.TokenVerifier) (*Actor, error) {
	header := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		return nil, errMissingToken
	}
	tokenString := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	if tokenString == "" {
		return nil, errMissingToken
	}

	claims, err := verifier.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	// Verify has already checked both IDs parse.
	userID, _ := claims.UserID()
	actor := &Actor{UserID: userID}
	if branchID, ok, _ := claims.Branch(); ok {
		actor.BranchID = &branchID
	}
	return actor, nil
}

func actorFromHeaders(c *gin.Context) (*Actor, error) {
	raw := c.GetHeader(UserIDHeader)
	if raw == "" {
		return nil, nil
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return nil, auth.ErrInvalidClaims
	}
	actor := &Actor{UserID: userID}
	if rawBranch := c.GetHeader(BranchIDHeader); rawBranch != "" {
		branchID, err := uuid.Parse(rawBranch)
		if err != nil {
			return nil, auth.ErrInvalidClaims
		}
		actor.BranchID = &branchID
	}
	return actor, nil
}

func handleAuthError(c *gin.Context, cfg ActorConfig, err error) {
	if cfg.Logger != nil {
		cfg.Logger.Warn("Actor resolution failed",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
	}

	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenNotYetValid):
		code, message = dto.ErrCodeTokenInvalid, "Invalid token"
	case errors.Is(err, auth.ErrInvalidClaims), errors.Is(err, auth.ErrMissingUserID):
		code, message = dto.ErrCodeTokenInvalid, "Invalid caller identity"
	}
	abortWithError(c, code, message)
}

// GetActor returns the resolved actor
func GetActor(c *gin.Context) (Actor, bool) {
	v, exists := c.Get(ActorKey)
	if !exists {
		return Actor{}, false
	}
	actor, ok := v.(Actor)
	return actor, ok
}
