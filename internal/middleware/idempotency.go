package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GoPolymarket/whaleledger/internal/model"
	"github.com/GoPolymarket/whaleledger/internal/pkg/apperrors"
	"github.com/GoPolymarket/whaleledger/internal/pkg/logger"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"

type IdempotencyStore interface {
	// GetOrLock returns (record, true) if the key is known; (nil, false) if
	// the caller now holds it.
	GetOrLock(ctx context.Context, key string) (*model.IdempotencyRecord, bool, error)
	Save(ctx context.Context, key string, status int, body []byte) error
	Unlock(ctx context.Context, key string) error
}

type InMemIdempotencyStore struct {
	mu      sync.Mutex
	records map[string]*model.IdempotencyRecord
}

func NewInMemIdempotencyStore() *InMemIdempotencyStore {
	return &InMemIdempotencyStore{
		records: make(map[string]*model.IdempotencyRecord),
	}
}

func (s *InMemIdempotencyStore) GetOrLock(_ context.Context, key string) (*model.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[key]; ok {
		return rec, true, nil
	}
	s.records[key] = &model.IdempotencyRecord{
		Processing: true,
		CreatedAt:  time.Now(),
	}
	return nil, false, nil
}

func (s *InMemIdempotencyStore) Save(_ context.Context, key string, status int, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = &model.IdempotencyRecord{
		Status:    status,
		Body:      body,
		CreatedAt: time.Now(),
	}
	return nil
}

func (s *InMemIdempotencyStore) Unlock(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// IdempotencyMiddleware replays the stored response for a repeated
// X-Idempotency-Key from the same caller, so a retried subscribe never charges
// twice. Must run after AuthMiddleware.
func IdempotencyMiddleware(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		idemKey := c.GetHeader(HeaderIdempotencyKey)
		if idemKey == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		fullKey := CallerFrom(c).Identity.Hex() + ":" + idemKey

		record, hit, err := store.GetOrLock(ctx, fullKey)
		if err != nil {
			c.Error(apperrors.NewDependency("idempotency store unavailable", err))
			c.Abort()
			return
		}
		if hit {
			if record.Processing {
				c.Error(apperrors.NewState("request with this idempotency key is in progress"))
				c.Abort()
				return
			}
			c.Data(record.Status, "application/json; charset=utf-8", record.Body)
			c.Abort()
			return
		}

		w := &responseBodyWriter{ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		// failed requests stay retryable; ErrorHandler renders them after us
		if len(c.Errors) == 0 && c.Writer.Status() < 500 {
			err = store.Save(ctx, fullKey, c.Writer.Status(), w.body)
		} else {
			err = store.Unlock(ctx, fullKey)
		}
		if err != nil {
			logger.Warn("idempotency store write failed", "key", idemKey, "error", err)
		}
	}
}

type responseBodyWriter struct {
	gin.ResponseWriter
	body []byte
}

func (w *responseBodyWriter) Write(b []byte) (int, error) {
	w.body = append(w.body, b...)
	return w.ResponseWriter.Write(b)
}
