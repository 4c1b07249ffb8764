package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/logger"
	"github.com/erp/pos/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Idempotency headers
const (
	IdempotencyKeyHeader      = "Idempotency-Key"
	IdempotencyReplayedHeader = "X-Idempotency-Replayed"
	maxIdempotencyKeyLength   = 128
)

// storedResponse is what a completed key replays
type storedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// responseRecorder tees the response body so it can be stored
type responseRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the first successful response for a repeated
// Idempotency-Key. Keys are scoped by actor and path. A request with the key
// still in flight gets 409; failed requests release the key so the client
// may retry. Store outages degrade to normal processing.
func Idempotency(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) gin.HandlerFunc {
	if store == nil || !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			abortWithError(c, dto.ErrCodeIdempotencyKeyFormat, "Idempotency-Key must be at most 128 characters")
			return
		}

		ctx := c.Request.Context()
		log := logger.L(ctx)
		scoped := scopeKey(c, key)

		if replay(c, store, scoped) {
			return
		}

		acquired, err := store.Acquire(ctx, scoped, cfg.TTL)
		if err != nil {
			log.Warn("Idempotency store unavailable, processing without replay protection", zap.Error(err))
			c.Next()
			return
		}
		if !acquired {
			// Completed between the lookup and the claim.
			if replay(c, store, scoped) {
				return
			}
			abortWithError(c, dto.ErrCodeIdempotencyInFlight, "A request with this Idempotency-Key is still being processed")
			return
		}

		rec := &responseRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		// The request may have been cancelled; the bookkeeping still has to land.
		bookkeeping := context.WithoutCancel(ctx)
		status := rec.Status()
		if status >= http.StatusOK && status < http.StatusMultipleChoices {
			payload, err := json.Marshal(storedResponse{Status: status, Body: rec.body.Bytes()})
			if err == nil {
				err = store.Complete(bookkeeping, scoped, payload, cfg.TTL)
			}
			if err != nil {
				log.Warn("Failed to store idempotent response", zap.Error(err))
			}
			return
		}
		if err := store.Release(bookkeeping, scoped); err != nil {
			log.Warn("Failed to release idempotency key", zap.Error(err))
		}
	}
}

func scopeKey(c *gin.Context, key string) string {
	actor := "anonymous"
	if a, ok := GetActor(c); ok {
		actor = a.UserID.String()
	}
	return actor + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key
}

// replay writes a stored response and reports whether one existed
func replay(c *gin.Context, store shared.IdempotencyStore, key string) bool {
	raw, found, err := store.Lookup(c.Request.Context(), key)
	if err != nil || !found {
		return false
	}
	var stored storedResponse
	if err := json.Unmarshal(raw, &stored); err != nil {
		return false
	}
	c.Header(IdempotencyReplayedHeader, "true")
	c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
	c.Abort()
	return true
}
