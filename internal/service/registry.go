package service

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/GoPolymarket/whaleledger/internal/keys"
	"github.com/GoPolymarket/whaleledger/internal/model"
	"github.com/GoPolymarket/whaleledger/internal/pkg/logger"
	"github.com/GoPolymarket/whaleledger/internal/pkg/metrics"
	"github.com/GoPolymarket/whaleledger/internal/repository"
)

// RegistryService owns tracked traders and the registry counters. Every
// trader mutation and its counter adjustment commit in one atomic unit, and
// the registry is always locked before the trader record.
type RegistryService struct {
	store repository.Store
	clock Clock
}

type AddTraderRequest struct {
	Address        common.Address  `json:"address" binding:"required"`
	Tier           uint8           `json:"tier"`
	LinkedIdentity *model.Identity `json:"linked_identity,omitempty"`
	model.TraderStats
}

type UpdateTraderRequest struct {
	Tier        uint8 `json:"tier"`
	LastTradeAt int64 `json:"last_trade_at"`
	model.TraderStats
}

type LinkTraderRequest struct {
	Identity model.Identity `json:"identity" binding:"required"`
}

func NewRegistryService(store repository.Store, clock Clock) *RegistryService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &RegistryService{store: store, clock: clock}
}

func (s *RegistryService) Initialize(ctx context.Context, caller model.Identity) (reg *model.WhaleRegistry, err error) {
	defer func() { metrics.Observe("initialize_registry", err) }()

	err = s.store.Atomic(ctx, func(tx repository.Tx) error {
		cfg, err := loadConfig(ctx, tx)
		if err != nil {
			return err
		}
		if err := requireAuthority(cfg, caller); err != nil {
			return err
		}
		slot := keys.RegistrySlot()
		reg = &model.WhaleRegistry{
			Authority:   caller,
			LastUpdated: s.clock.Now(),
			Bump:        slot.Bump,
		}
		return existsOr(repository.Insert(ctx, tx, slot, repository.KindRegistry, reg), "registry already initialized")
	})
	if err != nil {
		return nil, err
	}
	publishCounts(reg)
	logger.ForOp("initialize_registry").Info("registry initialized", "authority", caller.Hex())
	return reg, nil
}

func (s *RegistryService) AddTrader(ctx context.Context, caller model.Identity, req AddTraderRequest) (trader *model.TrackedTrader, err error) {
	defer func() { metrics.Observe("add_trader", err) }()

	var reg *model.WhaleRegistry
	err = s.store.Atomic(ctx, func(tx repository.Tx) error {
		if err := s.authorize(ctx, tx, caller); err != nil {
			return err
		}
		tier, err := model.ParseTraderTier(req.Tier)
		if err != nil {
			return err
		}
		reg, err = loadRegistry(ctx, tx)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		slot := keys.TraderSlot(req.Address)
		trader = &model.TrackedTrader{
			ExternalAddress: req.Address,
			LinkedIdentity:  req.LinkedIdentity,
			Tier:            tier,
			TraderStats:     req.TraderStats,
			LastTradeAt:     now,
			AddedAt:         now,
			UpdatedAt:       now,
			Bump:            slot.Bump,
		}
		if err := repository.Insert(ctx, tx, slot, repository.KindTrader, trader); err != nil {
			return existsOr(err, "trader already exists")
		}

		if err := reg.Increment(tier.Bucket()); err != nil {
			return err
		}
		reg.LastUpdated = now
		return repository.Save(ctx, tx, keys.RegistrySlot(), repository.KindRegistry, reg)
	})
	if err != nil {
		return nil, err
	}
	publishCounts(reg)
	logger.ForOp("add_trader").Info("trader added",
		"address", trader.ExternalAddress.Hex(), "tier", trader.Tier.String(),
		"whale_count", reg.WhaleCount, "degen_count", reg.DegenCount)
	return trader, nil
}

// UpdateTrader overwrites every stat field. Counters move only when the tier
// changes.
func (s *RegistryService) UpdateTrader(ctx context.Context, caller model.Identity, addr common.Address, req UpdateTraderRequest) (trader *model.TrackedTrader, err error) {
	defer func() { metrics.Observe("update_trader", err) }()

	var reg *model.WhaleRegistry
	var oldTier model.TraderTier
	err = s.store.Atomic(ctx, func(tx repository.Tx) error {
		if err := s.authorize(ctx, tx, caller); err != nil {
			return err
		}
		tier, err := model.ParseTraderTier(req.Tier)
		if err != nil {
			return err
		}
		reg, err = loadRegistry(ctx, tx)
		if err != nil {
			return err
		}
		slot := keys.TraderSlot(addr)
		trader, err = repository.Load[model.TrackedTrader](ctx, tx, slot, repository.KindTrader)
		if err != nil {
			return notFoundOr(err, "trader not found")
		}

		oldTier = trader.Tier
		if err := reg.Rebalance(oldTier, tier); err != nil {
			return err
		}

		now := s.clock.Now()
		trader.Tier = tier
		trader.TraderStats = req.TraderStats
		trader.LastTradeAt = req.LastTradeAt
		trader.UpdatedAt = now
		reg.LastUpdated = now

		if err := repository.Save(ctx, tx, slot, repository.KindTrader, trader); err != nil {
			return err
		}
		return repository.Save(ctx, tx, keys.RegistrySlot(), repository.KindRegistry, reg)
	})
	if err != nil {
		return nil, err
	}
	publishCounts(reg)
	logger.ForOp("update_trader").Info("trader updated",
		"address", addr.Hex(), "old_tier", oldTier.String(), "tier", trader.Tier.String())
	return trader, nil
}

func (s *RegistryService) RemoveTrader(ctx context.Context, caller model.Identity, addr common.Address) (err error) {
	defer func() { metrics.Observe("remove_trader", err) }()

	var reg *model.WhaleRegistry
	err = s.store.Atomic(ctx, func(tx repository.Tx) error {
		if err := s.authorize(ctx, tx, caller); err != nil {
			return err
		}
		var err error
		reg, err = loadRegistry(ctx, tx)
		if err != nil {
			return err
		}
		slot := keys.TraderSlot(addr)
		trader, err := repository.Load[model.TrackedTrader](ctx, tx, slot, repository.KindTrader)
		if err != nil {
			return notFoundOr(err, "trader not found")
		}

		reg.Decrement(trader.Tier.Bucket())
		reg.LastUpdated = s.clock.Now()

		if err := tx.Delete(ctx, slot, repository.KindTrader); err != nil {
			return notFoundOr(err, "trader not found")
		}
		return repository.Save(ctx, tx, keys.RegistrySlot(), repository.KindRegistry, reg)
	})
	if err != nil {
		return err
	}
	publishCounts(reg)
	logger.ForOp("remove_trader").Info("trader removed", "address", addr.Hex())
	return nil
}

// LinkTrader attaches the owning-chain identity that movement notifications
// are reported against.
func (s *RegistryService) LinkTrader(ctx context.Context, caller model.Identity, addr common.Address, req LinkTraderRequest) (trader *model.TrackedTrader, err error) {
	defer func() { metrics.Observe("link_trader", err) }()

	err = s.store.Atomic(ctx, func(tx repository.Tx) error {
		if err := s.authorize(ctx, tx, caller); err != nil {
			return err
		}
		slot := keys.TraderSlot(addr)
		trader, err = repository.Load[model.TrackedTrader](ctx, tx, slot, repository.KindTrader)
		if err != nil {
			return notFoundOr(err, "trader not found")
		}
		identity := req.Identity
		trader.LinkedIdentity = &identity
		trader.UpdatedAt = s.clock.Now()
		return repository.Save(ctx, tx, slot, repository.KindTrader, trader)
	})
	if err != nil {
		return nil, err
	}
	logger.ForOp("link_trader").Info("trader linked", "address", addr.Hex(), "identity", req.Identity.Hex())
	return trader, nil
}

func (s *RegistryService) GetRegistry(ctx context.Context) (*model.WhaleRegistry, error) {
	reg, err := repository.Load[model.WhaleRegistry](ctx, s.store, keys.RegistrySlot(), repository.KindRegistry)
	if err != nil {
		return nil, notFoundOr(err, "registry not initialized")
	}
	return reg, nil
}

func (s *RegistryService) GetTrader(ctx context.Context, addr common.Address) (*model.TrackedTrader, error) {
	trader, err := repository.Load[model.TrackedTrader](ctx, s.store, keys.TraderSlot(addr), repository.KindTrader)
	if err != nil {
		return nil, notFoundOr(err, "trader not found")
	}
	return trader, nil
}

func (s *RegistryService) ListTraders(ctx context.Context, limit, offset int) ([]*model.TrackedTrader, error) {
	records, err := s.store.List(ctx, repository.KindTrader, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*model.TrackedTrader, 0, len(records))
	for _, rec := range records {
		trader, err := repository.Decode[model.TrackedTrader](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, trader)
	}
	return out, nil
}

func (s *RegistryService) authorize(ctx context.Context, tx repository.Tx, caller model.Identity) error {
	cfg, err := loadConfig(ctx, tx)
	if err != nil {
		return err
	}
	return requireAuthority(cfg, caller)
}

func loadRegistry(ctx context.Context, tx repository.Tx) (*model.WhaleRegistry, error) {
	reg, err := repository.Load[model.WhaleRegistry](ctx, tx, keys.RegistrySlot(), repository.KindRegistry)
	if err != nil {
		return nil, notFoundOr(err, "registry not initialized")
	}
	return reg, nil
}

func publishCounts(reg *model.WhaleRegistry) {
	if reg == nil {
		return
	}
	metrics.RegistryTraders.WithLabelValues(string(model.BucketWhale)).Set(float64(reg.WhaleCount))
	metrics.RegistryTraders.WithLabelValues(string(model.BucketDegen)).Set(float64(reg.DegenCount))
}
