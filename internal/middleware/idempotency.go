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
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	// IdempotencyKeyHeader is the header name for the idempotency key
	IdempotencyKeyHeader = "X-Idempotency-Key"
	// idempotencyKeyPrefix is the Redis key prefix for records
	idempotencyKeyPrefix = "idempotency:"

	// Completed records outlive processing markers so retries replay the
	// stored response instead of re-executing the purchase.
	completedTTL  = 5 * time.Minute
	processingTTL = 60 * time.Second
)

type idempotencyStatus string

const (
	statusProcessing idempotencyStatus = "processing"
	statusCompleted  idempotencyStatus = "completed"
)

// idempotencyRecord stores the state of an idempotent request
type idempotencyRecord struct {
	Key          string            `json:"key"`
	Status       idempotencyStatus `json:"status"`
	RequestHash  string            `json:"request_hash"`
	ResponseCode int               `json:"response_code"`
	ResponseBody string            `json:"response_body"`
	CreatedAt    time.Time         `json:"created_at"`
}

// IdempotencyStore is the subset of Redis operations the middleware needs.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// Idempotency deduplicates retried writes keyed by X-Idempotency-Key.
// Requests without the header pass through untouched. Redis failures fail
// open: a purchase is never blocked by a cache outage.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		var bodyBytes []byte
		if c.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		requestHash := hashRequest(c, bodyBytes)
		redisKey := idempotencyKeyPrefix + key
		ctx := c.Request.Context()

		existing, err := getRecord(ctx, store, redisKey)
		if err != nil && !errors.Is(err, redis.Nil) {
			c.Next()
			return
		}

		if existing != nil {
			replayRecord(c, store, redisKey, existing, requestHash)
			return
		}

		record := &idempotencyRecord{
			Key:         key,
			Status:      statusProcessing,
			RequestHash: requestHash,
			CreatedAt:   time.Now().UTC(),
		}

		if !trySetRecord(ctx, store, redisKey, record, processingTTL) {
			// Another request beat us to the key
			if existing, _ = getRecord(ctx, store, redisKey); existing != nil {
				replayRecord(c, store, redisKey, existing, requestHash)
				return
			}
			c.Next()
			return
		}

		rw := &captureWriter{ResponseWriter: c.Writer, body: bytes.NewBuffer(nil)}
		c.Writer = rw

		c.Next()

		record.Status = statusCompleted
		record.ResponseCode = rw.status
		record.ResponseBody = rw.body.String()
		if data, err := json.Marshal(record); err == nil {
			store.Set(ctx, redisKey, string(data), completedTTL)
		}
	}
}

// replayRecord answers from a stored record: completed requests replay the
// original response, in-flight ones get 409 with a Retry-After hint, and a
// reused key with a different payload gets 422.
func replayRecord(c *gin.Context, store IdempotencyStore, redisKey string, record *idempotencyRecord, requestHash string) {
	if record.RequestHash != requestHash {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "IDEMPOTENCY_KEY_REUSED",
				"message": "Idempotency key already used with a different request",
			},
		})
		return
	}

	if record.Status == statusProcessing {
		// The processing marker's remaining TTL bounds how long the
		// in-flight request can still hold the key.
		if ttl, err := store.TTL(c.Request.Context(), redisKey).Result(); err == nil && ttl > 0 {
			c.Header("Retry-After", strconv.Itoa(int((ttl+time.Second-1)/time.Second)))
		}
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "REQUEST_IN_PROGRESS",
				"message": "A request with this idempotency key is already being processed",
			},
		})
		return
	}

	c.Data(record.ResponseCode, "application/json", []byte(record.ResponseBody))
	c.Abort()
}

func hashRequest(c *gin.Context, body []byte) string {
	h := sha256.New()
	h.Write([]byte(c.Request.Method))
	h.Write([]byte(c.Request.URL.Path))
	if userID := GetUserID(c); userID != "" {
		h.Write([]byte(userID))
	}
	if len(body) > 0 {
		h.Write(body)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func getRecord(ctx context.Context, store IdempotencyStore, key string) (*idempotencyRecord, error) {
	result, err := store.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var record idempotencyRecord
	if err := json.Unmarshal([]byte(result), &record); err != nil {
		return nil, err
	}

	return &record, nil
}

func trySetRecord(ctx context.Context, store IdempotencyStore, key string, record *idempotencyRecord, ttl time.Duration) bool {
	data, err := json.Marshal(record)
	if err != nil {
		return false
	}
	ok, err := store.SetNX(ctx, key, string(data), ttl).Result()
	return err == nil && ok
}

// captureWriter captures the response for replay on retries
type captureWriter struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
