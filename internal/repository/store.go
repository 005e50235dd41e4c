package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/GoPolymarket/whaleledger/internal/keys"
)

// Kind tags the schema stored at a slot.
type Kind string

const (
	KindConfig       Kind = "config"
	KindRegistry     Kind = "registry"
	KindSubscription Kind = "subscription"
	KindTrader       Kind = "trader"
	KindSignal       Kind = "signal"
	KindTokenAccount Kind = "token_account"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
	ErrKindMismatch  = errors.New("record kind mismatch")
)

// Record is one fixed-schema entry at a derived slot.
type Record struct {
	Slot      keys.Slot
	Kind      Kind
	Data      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Reader interface {
	Get(ctx context.Context, slot keys.Slot, kind Kind) (*Record, error)
}

// Tx is the view of the store inside one atomic unit. Get holds the record
// exclusively until the unit ends; View only blocks concurrent writers.
type Tx interface {
	Reader
	View(ctx context.Context, slot keys.Slot, kind Kind) (*Record, error)
	Create(ctx context.Context, slot keys.Slot, kind Kind, data []byte) error
	Update(ctx context.Context, slot keys.Slot, kind Kind, data []byte) error
	Delete(ctx context.Context, slot keys.Slot, kind Kind) error
}

// Store is the keyed storage substrate. Atomic commits every write made by fn
// or none of them.
type Store interface {
	Reader
	Atomic(ctx context.Context, fn func(tx Tx) error) error
	List(ctx context.Context, kind Kind, limit, offset int) ([]*Record, error)
	Close() error
}

func Load[T any](ctx context.Context, r Reader, slot keys.Slot, kind Kind) (*T, error) {
	rec, err := r.Get(ctx, slot, kind)
	if err != nil {
		return nil, err
	}
	return Decode[T](rec)
}

func Decode[T any](rec *Record) (*T, error) {
	var v T
	if err := json.Unmarshal(rec.Data, &v); err != nil {
		return nil, fmt.Errorf("decode %s at %s: %w", rec.Kind, rec.Slot, err)
	}
	return &v, nil
}

func Insert(ctx context.Context, tx Tx, slot keys.Slot, kind Kind, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return tx.Create(ctx, slot, kind, data)
}

func Save(ctx context.Context, tx Tx, slot keys.Slot, kind Kind, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return tx.Update(ctx, slot, kind, data)
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
