package service

import (
	"context"

	"github.com/GoPolymarket/whaleledger/internal/keys"
	"github.com/GoPolymarket/whaleledger/internal/model"
	"github.com/GoPolymarket/whaleledger/internal/pkg/logger"
	"github.com/GoPolymarket/whaleledger/internal/pkg/metrics"
	"github.com/GoPolymarket/whaleledger/internal/repository"
)

// SignalService records price-confidence anomalies. Signals are attested by
// the authority and not checked against the referenced feed.
type SignalService struct {
	store repository.Store
}

type PublishSignalRequest struct {
	Asset              string         `json:"asset" binding:"required"`
	DetectedAt         int64          `json:"detected_at"`
	FeedReference      model.Identity `json:"feed_reference"`
	Price              int64          `json:"price"`
	Confidence         uint64         `json:"confidence"`
	BaselineConfidence uint64         `json:"baseline_confidence"`
	Multiplier         uint16         `json:"multiplier"`
	Severity           uint8          `json:"severity"`
}

func NewSignalService(store repository.Store) *SignalService {
	return &SignalService{store: store}
}

// Publish writes a signal once per (asset, detectedAt); a second publish for
// the same pair fails and leaves the first untouched.
func (s *SignalService) Publish(ctx context.Context, caller model.Identity, req PublishSignalRequest) (sig *model.Signal, err error) {
	defer func() { metrics.Observe("publish_signal", err) }()

	var asset model.Asset
	err = s.store.Atomic(ctx, func(tx repository.Tx) error {
		cfg, err := loadConfig(ctx, tx)
		if err != nil {
			return err
		}
		if err := requireAuthority(cfg, caller); err != nil {
			return err
		}
		asset, err = model.ParseAsset(req.Asset)
		if err != nil {
			return err
		}
		severity, err := model.ParseSeverity(req.Severity)
		if err != nil {
			return err
		}

		slot := keys.SignalSlot(asset, req.DetectedAt)
		sig = &model.Signal{
			Asset:              asset,
			FeedReference:      req.FeedReference,
			Price:              req.Price,
			Confidence:         req.Confidence,
			BaselineConfidence: req.BaselineConfidence,
			Multiplier:         req.Multiplier,
			Severity:           severity,
			DetectedAt:         req.DetectedAt,
			Publisher:          caller,
			Bump:               slot.Bump,
		}
		return existsOr(repository.Insert(ctx, tx, slot, repository.KindSignal, sig), "signal already published for this asset and time")
	})
	if err != nil {
		return nil, err
	}
	logger.ForOp("publish_signal").Info("signal published",
		"asset", asset.String(), "detected_at", req.DetectedAt, "severity", sig.Severity.String())
	return sig, nil
}

func (s *SignalService) Get(ctx context.Context, asset model.Asset, detectedAt int64) (*model.Signal, error) {
	sig, err := repository.Load[model.Signal](ctx, s.store, keys.SignalSlot(asset, detectedAt), repository.KindSignal)
	if err != nil {
		return nil, notFoundOr(err, "signal not found")
	}
	return sig, nil
}

// List returns signals in publication order.
func (s *SignalService) List(ctx context.Context, limit, offset int) ([]*model.Signal, error) {
	records, err := s.store.List(ctx, repository.KindSignal, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Signal, 0, len(records))
	for _, rec := range records {
		sig, err := repository.Decode[model.Signal](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	return out, nil
}
