package service

import (
	"context"
	"errors"
	"math"

	"github.com/GoPolymarket/whaleledger/internal/keys"
	"github.com/GoPolymarket/whaleledger/internal/model"
	"github.com/GoPolymarket/whaleledger/internal/payment"
	"github.com/GoPolymarket/whaleledger/internal/pkg/apperrors"
	"github.com/GoPolymarket/whaleledger/internal/pkg/logger"
	"github.com/GoPolymarket/whaleledger/internal/pkg/metrics"
	"github.com/GoPolymarket/whaleledger/internal/repository"
)

// PaymentLedger moves subscription payments. Transfer joins the caller's
// atomic unit; any error aborts the whole operation.
type PaymentLedger interface {
	Transfer(ctx context.Context, tx repository.Tx, t payment.Transfer) error
}

type SubscriptionService struct {
	store    repository.Store
	payments PaymentLedger
	clock    Clock
	mint     model.Identity
}

type SubscribeRequest struct {
	Tier uint8 `json:"tier"`
}

func NewSubscriptionService(store repository.Store, payments PaymentLedger, clock Clock, mint model.Identity) *SubscriptionService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &SubscriptionService{
		store:    store,
		payments: payments,
		clock:    clock,
		mint:     mint,
	}
}

// Subscribe charges caller for the tier and extends the caller's entitlement.
// Renewing while still active stacks the new period on the current expiry.
func (s *SubscriptionService) Subscribe(ctx context.Context, caller model.Identity, req SubscribeRequest) (sub *model.Subscription, err error) {
	defer func() { metrics.Observe("subscribe", err) }()

	var price uint64
	var tier model.SubscriptionTier
	err = s.store.Atomic(ctx, func(tx repository.Tx) error {
		cfg, err := loadConfig(ctx, tx)
		if err != nil {
			return err
		}
		if cfg.Paused {
			return apperrors.NewState("program is paused")
		}

		tier, err = model.ParsePurchasableTier(req.Tier)
		if err != nil {
			return err
		}
		var duration int64
		price, duration, err = quote(cfg, tier)
		if err != nil {
			return err
		}

		if err := s.payments.Transfer(ctx, tx, payment.Transfer{
			From:         caller,
			To:           cfg.PayoutDestination,
			Mint:         s.mint,
			Amount:       price,
			AuthorizedBy: caller,
		}); err != nil {
			return err
		}

		slot := keys.SubscriptionSlot(caller)
		current, err := repository.Load[model.Subscription](ctx, tx, slot, repository.KindSubscription)
		created := false
		switch {
		case errors.Is(err, repository.ErrNotFound):
			current = &model.Subscription{Owner: caller, Bump: slot.Bump}
			created = true
		case err != nil:
			return notFoundOr(err, "subscription not found")
		}

		if err := renew(current, tier, price, duration, s.clock.Now()); err != nil {
			return err
		}
		sub = current

		if created {
			return repository.Insert(ctx, tx, slot, repository.KindSubscription, current)
		}
		return repository.Save(ctx, tx, slot, repository.KindSubscription, current)
	})
	if err != nil {
		return nil, err
	}

	metrics.SubscriptionRevenue.WithLabelValues(tier.String()).Add(float64(price))
	logger.ForOp("subscribe").Info("subscription extended",
		"owner", caller.Hex(), "tier", tier.String(), "price", price,
		"started_at", sub.StartedAt, "expires_at", sub.ExpiresAt)
	return sub, nil
}

// quote returns the configured price and duration for tier.
func quote(cfg *model.ProgramConfig, tier model.SubscriptionTier) (uint64, int64, error) {
	price, duration, ok := cfg.Pricing(tier)
	if !ok {
		return 0, 0, apperrors.NewValidation("subscription tier %s is not purchasable", tier)
	}
	return price, duration, nil
}

// renew applies the renewal window arithmetic to sub at time now.
func renew(sub *model.Subscription, tier model.SubscriptionTier, price uint64, duration, now int64) error {
	base := now
	if sub.ExpiresAt > now {
		base = sub.ExpiresAt
	}
	if duration > 0 && base > math.MaxInt64-duration {
		return apperrors.NewValidation("subscription expiry overflows")
	}
	if sub.TotalPaid > math.MaxUint64-price {
		return apperrors.NewValidation("total paid overflows")
	}

	if sub.StartedAt == 0 || sub.ExpiresAt < now {
		sub.StartedAt = now
	}
	sub.ExpiresAt = base + duration
	sub.TotalPaid += price
	sub.Tier = tier
	return nil
}

func (s *SubscriptionService) Get(ctx context.Context, owner model.Identity) (*model.Subscription, error) {
	sub, err := repository.Load[model.Subscription](ctx, s.store, keys.SubscriptionSlot(owner), repository.KindSubscription)
	if err != nil {
		return nil, notFoundOr(err, "subscription not found")
	}
	return sub, nil
}

// IsActive reports whether owner holds an unexpired entitlement now.
func (s *SubscriptionService) IsActive(ctx context.Context, owner model.Identity) (bool, error) {
	sub, err := s.Get(ctx, owner)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return sub.IsActive(s.clock.Now()), nil
}
