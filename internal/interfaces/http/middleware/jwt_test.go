package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/pos/internal/infrastructure/auth"
	"github.com/erp/pos/internal/infrastructure/config"
	"github.com/erp/pos/internal/infrastructure/logger"
	"github.com/erp/pos/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVerifier() *auth.TokenVerifier {
	return auth.NewTokenVerifier(config.AuthConfig{
		Enabled:   true,
		JWTSecret: "test-secret-key-at-least-32-chars",
		Issuer:    "pos-identity",
	})
}

// actorRouter echoes the resolved actor
func actorRouter(cfg ActorConfig) *gin.Engine {
	r := gin.New()
	r.Use(ResolveActor(cfg))
	handler := func(c *gin.Context) {
		actor, ok := GetActor(c)
		body := gin.H{"resolved": ok}
		if ok {
			body["user_id"] = actor.UserID.String()
			if actor.BranchID != nil {
				body["branch_id"] = actor.BranchID.String()
			}
		}
		body["log_actor"] = logger.GetActorID(c.Request.Context())
		c.JSON(http.StatusOK, body)
	}
	r.GET("/test", handler)
	r.GET("/health", handler)
	return r
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestResolveActor_Token(t *testing.T) {
	verifier := newTestVerifier()
	router := actorRouter(ActorConfig{Verifier: verifier, SkipPaths: []string{"/health"}})

	serve := func(path, authHeader string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if authHeader != "" {
			req.Header.Set(AuthHeaderKey, authHeader)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("valid token with branch", func(t *testing.T) {
		userID, branchID := uuid.New(), uuid.New()
		token, err := verifier.Sign(userID, &branchID, time.Minute)
		require.NoError(t, err)

		w := serve("/test", BearerPrefix+token)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["resolved"])
		assert.Equal(t, userID.String(), body["user_id"])
		assert.Equal(t, branchID.String(), body["branch_id"])
		assert.Equal(t, userID.String(), body["log_actor"])
	})

	t.Run("valid token without branch", func(t *testing.T) {
		token, err := verifier.Sign(uuid.New(), nil, time.Minute)
		require.NoError(t, err)

		w := serve("/test", BearerPrefix+token)

		require.Equal(t, http.StatusOK, w.Code)
		_, hasBranch := decodeBody(t, w)["branch_id"]
		assert.False(t, hasBranch)
	})

	t.Run("missing header", func(t *testing.T) {
		w := serve("/test", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeUnauthorized, errorCode(t, w))
	})

	t.Run("wrong scheme", func(t *testing.T) {
		w := serve("/test", "Basic dXNlcjpwYXNz")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeUnauthorized, errorCode(t, w))
	})

	t.Run("empty bearer", func(t *testing.T) {
		w := serve("/test", BearerPrefix+"   ")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := serve("/test", BearerPrefix+"not.a.token")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenInvalid, errorCode(t, w))
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := verifier.Sign(uuid.New(), nil, -time.Minute)
		require.NoError(t, err)

		w := serve("/test", BearerPrefix+token)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenExpired, errorCode(t, w))
	})

	t.Run("token from another secret", func(t *testing.T) {
		other := auth.NewTokenVerifier(config.AuthConfig{JWTSecret: "another-secret-key-of-32-characters", Issuer: "pos-identity"})
		token, err := other.Sign(uuid.New(), nil, time.Minute)
		require.NoError(t, err)

		w := serve("/test", BearerPrefix+token)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenInvalid, errorCode(t, w))
	})

	t.Run("skip path needs no token", func(t *testing.T) {
		w := serve("/health", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, false, decodeBody(t, w)["resolved"])
	})
}

func TestResolveActor_Headers(t *testing.T) {
	router := actorRouter(ActorConfig{})

	serve := func(userID, branchID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		if userID != "" {
			req.Header.Set(UserIDHeader, userID)
		}
		if branchID != "" {
			req.Header.Set(BranchIDHeader, branchID)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("no headers leaves the actor unresolved", func(t *testing.T) {
		w := serve("", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, false, decodeBody(t, w)["resolved"])
	})

	t.Run("user and branch headers", func(t *testing.T) {
		userID, branchID := uuid.NewString(), uuid.NewString()
		w := serve(userID, branchID)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, userID, body["user_id"])
		assert.Equal(t, branchID, body["branch_id"])
	})

	t.Run("malformed user id", func(t *testing.T) {
		w := serve("cashier-7", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenInvalid, errorCode(t, w))
	})

	t.Run("malformed branch id", func(t *testing.T) {
		w := serve(uuid.NewString(), "branch-1")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bearer header is ignored without a verifier", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+"whatever")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetActor_NotSet(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetActor(c)
	assert.False(t, ok)

	c.Set(ActorKey, "not an actor")
	_, ok = GetActor(c)
	assert.False(t, ok)
}
