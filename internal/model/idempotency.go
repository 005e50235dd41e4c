package model

import "time"

// IdempotencyRecord is the cached outcome of a keyed mutating request.
type IdempotencyRecord struct {
	Status     int       `json:"status"`
	Body       []byte    `json:"body,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	Processing bool      `json:"processing"`
}
