package model

// RateLimitConfig is a per-caller token bucket.
type RateLimitConfig struct {
	QPS   float64 `json:"qps"`
	Burst int     `json:"burst"`
}

// Caller is an API client acting as a ledger identity.
type Caller struct {
	APIKey   string          `json:"-"`
	Identity Identity        `json:"identity"`
	Rate     RateLimitConfig `json:"rate_limit"`
}
