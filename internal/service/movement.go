package service

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/GoPolymarket/whaleledger/internal/keys"
	"github.com/GoPolymarket/whaleledger/internal/model"
	"github.com/GoPolymarket/whaleledger/internal/pkg/apperrors"
	"github.com/GoPolymarket/whaleledger/internal/pkg/logger"
	"github.com/GoPolymarket/whaleledger/internal/pkg/metrics"
	"github.com/GoPolymarket/whaleledger/internal/repository"
)

// EventPublisher delivers movement notifications to observers.
type EventPublisher interface {
	Publish(ctx context.Context, evt *model.MovementEvent) error
}

// MovementNotifier emits movement events for linked traders. It never writes
// to the store.
type MovementNotifier struct {
	store     repository.Reader
	publisher EventPublisher
	clock     Clock
}

type NotifyMovementRequest struct {
	Address   common.Address `json:"address" binding:"required"`
	Amount    uint64         `json:"amount"`
	Token     string         `json:"token" binding:"required"`
	Direction string         `json:"direction" binding:"required"`
}

func NewMovementNotifier(store repository.Reader, publisher EventPublisher, clock Clock) *MovementNotifier {
	if clock == nil {
		clock = SystemClock{}
	}
	return &MovementNotifier{store: store, publisher: publisher, clock: clock}
}

func (n *MovementNotifier) Notify(ctx context.Context, caller model.Identity, req NotifyMovementRequest) (evt *model.MovementEvent, err error) {
	defer func() { metrics.Observe("notify_movement", err) }()

	cfg, err := repository.Load[model.ProgramConfig](ctx, n.store, keys.ConfigSlot(), repository.KindConfig)
	if err != nil {
		return nil, notFoundOr(err, "config not initialized")
	}
	if err := requireAuthority(cfg, caller); err != nil {
		return nil, err
	}
	token, err := model.ParseTokenKind(req.Token)
	if err != nil {
		return nil, err
	}
	direction, err := model.ParseDirection(req.Direction)
	if err != nil {
		return nil, err
	}

	trader, err := repository.Load[model.TrackedTrader](ctx, n.store, keys.TraderSlot(req.Address), repository.KindTrader)
	if err != nil {
		return nil, notFoundOr(err, "trader not found")
	}
	if trader.LinkedIdentity == nil {
		return nil, apperrors.NewNotFound("trader %s has no linked identity", req.Address.Hex())
	}

	evt = &model.MovementEvent{
		ID:              uuid.NewString(),
		ExternalAddress: req.Address,
		LinkedIdentity:  *trader.LinkedIdentity,
		Amount:          req.Amount,
		Token:           token,
		Direction:       direction,
		Timestamp:       n.clock.Now(),
	}
	if err := n.publisher.Publish(ctx, evt); err != nil {
		return nil, apperrors.NewDependency("failed to publish movement event", err)
	}

	metrics.MovementEvents.WithLabelValues(string(token), string(direction)).Inc()
	logger.ForOp("notify_movement").Info("movement emitted",
		"address", req.Address.Hex(), "identity", evt.LinkedIdentity.Hex(),
		"amount", req.Amount, "token", token, "direction", direction)
	return evt, nil
}
