package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/Moe-hub814/Academy/pkg/response"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency key
	IdempotencyKeyHeader = "X-Idempotency-Key"
	// ContextKeyIdempotencyKey is the context key for idempotency key
	ContextKeyIdempotencyKey = "idempotency_key"
	// IdempotencyKeyPrefix is the Redis key prefix
	IdempotencyKeyPrefix = "idempotency:"
)

// IdempotencyStatus represents the status of an idempotency record
type IdempotencyStatus string

const (
	StatusProcessing IdempotencyStatus = "processing"
	StatusCompleted  IdempotencyStatus = "completed"
)

// IdempotencyRecord stores the state of an idempotent request
type IdempotencyRecord struct {
	Key          string            `json:"key"`
	Status       IdempotencyStatus `json:"status"`
	RequestHash  string            `json:"request_hash"`
	ResponseCode int               `json:"response_code"`
	ResponseBody string            `json:"response_body"`
	CreatedAt    time.Time         `json:"created_at"`
}

// RedisClient is the subset of redis operations the middleware needs
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Redis RedisClient
	// TTL for completed records
	TTL time.Duration
	// ProcessingTTL guards against a crashed handler holding the key forever
	ProcessingTTL time.Duration
	// Required makes the X-Idempotency-Key header mandatory
	Required bool
}

// DefaultIdempotencyConfig returns default configuration
func DefaultIdempotencyConfig(rdb RedisClient) *IdempotencyConfig {
	return &IdempotencyConfig{
		Redis:         rdb,
		TTL:           24 * time.Hour,
		ProcessingTTL: 60 * time.Second,
	}
}

type bufferingWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bufferingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays a previously-completed response for requests that
// carry an already-seen X-Idempotency-Key, and rejects concurrent
// duplicates while the first request is still in flight.
func Idempotency(config *IdempotencyConfig) gin.HandlerFunc {
	if config.ProcessingTTL == 0 {
		config.ProcessingTTL = 60 * time.Second
	}
	if config.TTL == 0 {
		config.TTL = 24 * time.Hour
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			if config.Required {
				response.Error(c, http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "X-Idempotency-Key header is required", "")
				c.Abort()
				return
			}
			c.Next()
			return
		}

		c.Set(ContextKeyIdempotencyKey, key)
		redisKey := IdempotencyKeyPrefix + key

		var bodyBytes []byte
		if c.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}
		reqHash := hashRequest(c.Request.Method, c.Request.URL.Path, bodyBytes)

		ctx := c.Request.Context()

		// Claim the key. If the claim fails, a previous request with the
		// same key is either in flight or completed.
		record := IdempotencyRecord{
			Key:         key,
			Status:      StatusProcessing,
			RequestHash: reqHash,
			CreatedAt:   time.Now().UTC(),
		}
		recordJSON, _ := json.Marshal(record)

		claimed, err := config.Redis.SetNX(ctx, redisKey, recordJSON, config.ProcessingTTL).Result()
		if err != nil {
			// Redis being down must not block writes
			c.Next()
			return
		}

		if !claimed {
			existing, err := getRecord(ctx, config.Redis, redisKey)
			if err != nil {
				c.Next()
				return
			}

			if existing.RequestHash != reqHash {
				response.Error(c, http.StatusUnprocessableEntity, "IDEMPOTENCY_KEY_REUSED", "Idempotency key was used with a different request", "")
				c.Abort()
				return
			}

			if existing.Status == StatusProcessing {
				response.Error(c, http.StatusConflict, "REQUEST_IN_PROGRESS", "A request with this idempotency key is already being processed", "")
				c.Abort()
				return
			}

			// Replay the stored response
			c.Header("X-Idempotency-Replayed", "true")
			c.Data(existing.ResponseCode, "application/json", []byte(existing.ResponseBody))
			c.Abort()
			return
		}

		writer := &bufferingWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer

		c.Next()

		status := c.Writer.Status()
		if status >= 500 {
			// Let the client retry a failed write with the same key
			config.Redis.Del(ctx, redisKey)
			return
		}

		record.Status = StatusCompleted
		record.ResponseCode = status
		record.ResponseBody = writer.body.String()
		completedJSON, _ := json.Marshal(record)
		config.Redis.Set(ctx, redisKey, completedJSON, config.TTL)
	}
}

func getRecord(ctx context.Context, rdb RedisClient, key string) (*IdempotencyRecord, error) {
	raw, err := rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errors.New("idempotency record expired")
		}
		return nil, err
	}

	var record IdempotencyRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func hashRequest(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
