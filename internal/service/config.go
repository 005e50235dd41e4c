package service

import (
	"context"

	"github.com/GoPolymarket/whaleledger/internal/keys"
	"github.com/GoPolymarket/whaleledger/internal/model"
	"github.com/GoPolymarket/whaleledger/internal/pkg/apperrors"
	"github.com/GoPolymarket/whaleledger/internal/pkg/logger"
	"github.com/GoPolymarket/whaleledger/internal/pkg/metrics"
	"github.com/GoPolymarket/whaleledger/internal/repository"
)

type ConfigService struct {
	store repository.Store
}

type InitializeConfigRequest struct {
	PayoutDestination model.Identity `json:"payout_destination" binding:"required"`
	BasicPrice        uint64         `json:"basic_price"`
	ProPrice          uint64         `json:"pro_price"`
	BasicDuration     int64          `json:"basic_duration"`
	ProDuration       int64          `json:"pro_duration"`
}

type UpdatePricingRequest struct {
	BasicPrice    uint64 `json:"basic_price"`
	ProPrice      uint64 `json:"pro_price"`
	BasicDuration int64  `json:"basic_duration"`
	ProDuration   int64  `json:"pro_duration"`
}

func NewConfigService(store repository.Store) *ConfigService {
	return &ConfigService{store: store}
}

// Initialize creates the config singleton with caller as authority. It is the
// only operation without an authority check.
func (s *ConfigService) Initialize(ctx context.Context, caller model.Identity, req InitializeConfigRequest) (cfg *model.ProgramConfig, err error) {
	defer func() { metrics.Observe("initialize_config", err) }()

	if err := validateDurations(req.BasicDuration, req.ProDuration); err != nil {
		return nil, err
	}

	slot := keys.ConfigSlot()
	cfg = &model.ProgramConfig{
		Authority:         caller,
		PayoutDestination: req.PayoutDestination,
		BasicPrice:        req.BasicPrice,
		ProPrice:          req.ProPrice,
		BasicDuration:     req.BasicDuration,
		ProDuration:       req.ProDuration,
		Paused:            false,
		Bump:              slot.Bump,
	}
	err = s.store.Atomic(ctx, func(tx repository.Tx) error {
		return existsOr(repository.Insert(ctx, tx, slot, repository.KindConfig, cfg), "config already initialized")
	})
	if err != nil {
		return nil, err
	}
	logger.ForOp("initialize_config").Info("config initialized",
		"authority", caller.Hex(), "payout", cfg.PayoutDestination.Hex())
	return cfg, nil
}

func (s *ConfigService) Get(ctx context.Context) (*model.ProgramConfig, error) {
	cfg, err := repository.Load[model.ProgramConfig](ctx, s.store, keys.ConfigSlot(), repository.KindConfig)
	if err != nil {
		return nil, notFoundOr(err, "config not initialized")
	}
	return cfg, nil
}

func (s *ConfigService) SetPaused(ctx context.Context, caller model.Identity, paused bool) (cfg *model.ProgramConfig, err error) {
	defer func() { metrics.Observe("set_paused", err) }()
	cfg, err = s.mutate(ctx, caller, func(c *model.ProgramConfig) error {
		c.Paused = paused
		return nil
	})
	if err == nil {
		logger.ForOp("set_paused").Info("pause flag changed", "paused", paused)
	}
	return cfg, err
}

func (s *ConfigService) UpdatePricing(ctx context.Context, caller model.Identity, req UpdatePricingRequest) (cfg *model.ProgramConfig, err error) {
	defer func() { metrics.Observe("update_pricing", err) }()
	cfg, err = s.mutate(ctx, caller, func(c *model.ProgramConfig) error {
		if err := validateDurations(req.BasicDuration, req.ProDuration); err != nil {
			return err
		}
		c.BasicPrice = req.BasicPrice
		c.ProPrice = req.ProPrice
		c.BasicDuration = req.BasicDuration
		c.ProDuration = req.ProDuration
		return nil
	})
	if err == nil {
		logger.ForOp("update_pricing").Info("pricing updated",
			"basic_price", req.BasicPrice, "pro_price", req.ProPrice,
			"basic_duration", req.BasicDuration, "pro_duration", req.ProDuration)
	}
	return cfg, err
}

func (s *ConfigService) SetPayoutDestination(ctx context.Context, caller, dest model.Identity) (cfg *model.ProgramConfig, err error) {
	defer func() { metrics.Observe("set_payout_destination", err) }()
	cfg, err = s.mutate(ctx, caller, func(c *model.ProgramConfig) error {
		c.PayoutDestination = dest
		return nil
	})
	if err == nil {
		logger.ForOp("set_payout_destination").Info("payout destination changed", "payout", dest.Hex())
	}
	return cfg, err
}

func (s *ConfigService) mutate(ctx context.Context, caller model.Identity, apply func(*model.ProgramConfig) error) (*model.ProgramConfig, error) {
	var out *model.ProgramConfig
	err := s.store.Atomic(ctx, func(tx repository.Tx) error {
		slot := keys.ConfigSlot()
		cfg, err := repository.Load[model.ProgramConfig](ctx, tx, slot, repository.KindConfig)
		if err != nil {
			return notFoundOr(err, "config not initialized")
		}
		if err := requireAuthority(cfg, caller); err != nil {
			return err
		}
		if err := apply(cfg); err != nil {
			return err
		}
		out = cfg
		return repository.Save(ctx, tx, slot, repository.KindConfig, cfg)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func validateDurations(durations ...int64) error {
	for _, d := range durations {
		if d <= 0 {
			return apperrors.NewValidation("subscription duration must be positive, got %d", d)
		}
	}
	return nil
}
