package service

import (
	"context"
	"errors"
	"time"

	"github.com/GoPolymarket/whaleledger/internal/keys"
	"github.com/GoPolymarket/whaleledger/internal/model"
	"github.com/GoPolymarket/whaleledger/internal/pkg/apperrors"
	"github.com/GoPolymarket/whaleledger/internal/repository"
)

// Clock supplies the ledger's notion of now, in unix seconds.
type Clock interface {
	Now() int64
}

type SystemClock struct{}

func (SystemClock) Now() int64 {
	return time.Now().Unix()
}

type viewer interface {
	View(ctx context.Context, slot keys.Slot, kind repository.Kind) (*repository.Record, error)
}

// loadConfig resolves the config singleton inside an atomic unit without
// taking it exclusively.
func loadConfig(ctx context.Context, tx viewer) (*model.ProgramConfig, error) {
	rec, err := tx.View(ctx, keys.ConfigSlot(), repository.KindConfig)
	if err != nil {
		return nil, notFoundOr(err, "config not initialized")
	}
	return repository.Decode[model.ProgramConfig](rec)
}

func requireAuthority(cfg *model.ProgramConfig, caller model.Identity) error {
	if caller != cfg.Authority {
		return apperrors.NewAuthorization("caller is not the config authority")
	}
	return nil
}

func notFoundOr(err error, msg string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("%s", msg)
	case errors.Is(err, repository.ErrKindMismatch):
		return apperrors.NewState("slot holds a different record kind")
	default:
		return err
	}
}

func existsOr(err error, msg string) error {
	switch {
	case errors.Is(err, repository.ErrAlreadyExists):
		return apperrors.NewState("%s", msg)
	default:
		return err
	}
}
