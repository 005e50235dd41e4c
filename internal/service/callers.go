package service

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/time/rate"

	"github.com/GoPolymarket/whaleledger/internal/config"
	"github.com/GoPolymarket/whaleledger/internal/model"
)

// CallerDirectory maps gateway API keys to ledger identities and keeps one
// rate limiter per identity.
type CallerDirectory struct {
	mu       sync.RWMutex
	callers  map[string]*model.Caller // Key: API key
	limiters map[common.Hash]*rate.Limiter
}

func NewCallerDirectory(cfg *config.Config) (*CallerDirectory, error) {
	d := &CallerDirectory{
		callers:  make(map[string]*model.Caller),
		limiters: make(map[common.Hash]*rate.Limiter),
	}
	if cfg == nil {
		return d, nil
	}
	for _, c := range cfg.Auth.Callers {
		identity, err := ParseIdentity(c.Identity)
		if err != nil {
			return nil, fmt.Errorf("caller %q: %w", maskKey(c.APIKey), err)
		}
		if strings.TrimSpace(c.APIKey) == "" {
			return nil, fmt.Errorf("caller %s: api_key is required", identity.Hex())
		}
		d.Register(&model.Caller{
			APIKey:   strings.TrimSpace(c.APIKey),
			Identity: identity,
			Rate:     model.RateLimitConfig{QPS: c.QPS, Burst: c.Burst},
		})
	}
	return d, nil
}

func (d *CallerDirectory) Register(c *model.Caller) {
	if c == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callers[c.APIKey] = c

	// zero QPS means unlimited
	limit := rate.Limit(c.Rate.QPS)
	if limit == 0 {
		limit = rate.Inf
	}
	burst := c.Rate.Burst
	if burst == 0 {
		burst = 1
	}
	d.limiters[c.Identity] = rate.NewLimiter(limit, burst)
}

func (d *CallerDirectory) Lookup(apiKey string) (*model.Caller, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.callers[apiKey]
	return c, ok
}

func (d *CallerDirectory) Limiter(identity model.Identity) *rate.Limiter {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.limiters[identity]
}

func (d *CallerDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.callers)
}

// ParseIdentity accepts a 0x-prefixed 32-byte hex identity.
func ParseIdentity(s string) (model.Identity, error) {
	raw, err := hexutil.Decode(strings.TrimSpace(s))
	if err != nil {
		return model.Identity{}, fmt.Errorf("invalid identity %q: %w", s, err)
	}
	if len(raw) != common.HashLength {
		return model.Identity{}, fmt.Errorf("invalid identity %q: want %d bytes, got %d", s, common.HashLength, len(raw))
	}
	return common.BytesToHash(raw), nil
}

func maskKey(value string) string {
	value = strings.TrimSpace(value)
	if len(value) <= 8 {
		return "****"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
