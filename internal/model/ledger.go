package model

import (
	"math"

	"github.com/ethereum/go-ethereum/common"

	"github.com/GoPolymarket/whaleledger/internal/pkg/apperrors"
)

// Identity is an owning-chain account identity.
type Identity = common.Hash

// ProgramConfig is the singleton holding the authority, payout destination,
// per-tier pricing and the pause flag.
type ProgramConfig struct {
	Authority         Identity `json:"authority"`
	PayoutDestination Identity `json:"payout_destination"`
	BasicPrice        uint64   `json:"basic_price"`
	ProPrice          uint64   `json:"pro_price"`
	BasicDuration     int64    `json:"basic_duration"`
	ProDuration       int64    `json:"pro_duration"`
	Paused            bool     `json:"paused"`
	Bump              uint8    `json:"bump"`
}

// Pricing returns the price and duration for a purchasable tier.
func (c *ProgramConfig) Pricing(tier SubscriptionTier) (price uint64, duration int64, ok bool) {
	switch tier {
	case SubscriptionBasic:
		return c.BasicPrice, c.BasicDuration, true
	case SubscriptionPro:
		return c.ProPrice, c.ProDuration, true
	default:
		return 0, 0, false
	}
}

// Subscription is a per-owner entitlement. The record persists after it lapses.
type Subscription struct {
	Owner     Identity         `json:"owner"`
	Tier      SubscriptionTier `json:"tier"`
	StartedAt int64            `json:"started_at"`
	ExpiresAt int64            `json:"expires_at"`
	TotalPaid uint64           `json:"total_paid"`
	Bump      uint8            `json:"bump"`
}

// IsActive reports whether the entitlement covers now. It ends at expiresAt:
// a record with expiresAt == now is inactive but not yet lapsed, so a renewal
// at that instant keeps startedAt and extends from now, which equals
// extending from expiresAt.
func (s *Subscription) IsActive(now int64) bool {
	return s.Tier != SubscriptionNone && s.ExpiresAt > now
}

// WhaleRegistry caches per-bucket membership counts of TrackedTrader records.
type WhaleRegistry struct {
	Authority   Identity `json:"authority"`
	WhaleCount  uint32   `json:"whale_count"`
	DegenCount  uint32   `json:"degen_count"`
	LastUpdated int64    `json:"last_updated"`
	Bump        uint8    `json:"bump"`
}

// Increment adds one member to bucket b.
func (r *WhaleRegistry) Increment(b Bucket) error {
	counter := r.counter(b)
	if *counter == math.MaxUint32 {
		return apperrors.NewState("%s counter overflow", b)
	}
	*counter++
	return nil
}

// Decrement removes one member from bucket b, saturating at zero.
func (r *WhaleRegistry) Decrement(b Bucket) {
	counter := r.counter(b)
	if *counter > 0 {
		*counter--
	}
}

// Rebalance moves one member between the buckets of from and to. Any tier
// change is applied as decrement-then-increment, including moves inside the
// whale bucket, which net to zero.
func (r *WhaleRegistry) Rebalance(from, to TraderTier) error {
	if from == to {
		return nil
	}
	r.Decrement(from.Bucket())
	return r.Increment(to.Bucket())
}

func (r *WhaleRegistry) counter(b Bucket) *uint32 {
	if b == BucketDegen {
		return &r.DegenCount
	}
	return &r.WhaleCount
}

// TraderStats are the externally reported performance figures of a trader.
// They are recorded as claimed.
type TraderStats struct {
	// TotalPnl and TotalVolume are scaled by 1e6.
	TotalPnl int64 `json:"total_pnl"`
	// WinRate and Roi are basis points.
	WinRate     uint16 `json:"win_rate"`
	TradeCount  uint32 `json:"trade_count"`
	TotalVolume uint64 `json:"total_volume"`
	Roi         int32  `json:"roi"`
}

// TrackedTrader is keyed by its external chain address.
type TrackedTrader struct {
	ExternalAddress common.Address `json:"external_address"`
	LinkedIdentity  *Identity      `json:"linked_identity,omitempty"`
	Tier            TraderTier     `json:"tier"`
	TraderStats
	LastTradeAt int64 `json:"last_trade_at"`
	AddedAt     int64 `json:"added_at"`
	UpdatedAt   int64 `json:"updated_at"`
	Bump        uint8 `json:"bump"`
}

// Signal is an attested confidence anomaly for an asset. Immutable once written.
// Multiplier is confidence over baseline in hundredths (300 = 3x).
type Signal struct {
	Asset              Asset    `json:"asset"`
	FeedReference      Identity `json:"feed_reference"`
	Price              int64    `json:"price"`
	Confidence         uint64   `json:"confidence"`
	BaselineConfidence uint64   `json:"baseline_confidence"`
	Multiplier         uint16   `json:"multiplier"`
	Severity           Severity `json:"severity"`
	DetectedAt         int64    `json:"detected_at"`
	Publisher          Identity `json:"publisher"`
	Bump               uint8    `json:"bump"`
}

// MovementEvent announces a deposit or withdrawal seen on a trader's linked
// identity. It is never persisted.
type MovementEvent struct {
	ID              string         `json:"id"`
	ExternalAddress common.Address `json:"external_address"`
	LinkedIdentity  Identity       `json:"linked_identity"`
	Amount          uint64         `json:"amount"`
	Token           TokenKind      `json:"token"`
	Direction       Direction      `json:"direction"`
	Timestamp       int64          `json:"timestamp"`
}

// TokenAccount is a payment-ledger balance for one owner and mint.
type TokenAccount struct {
	Owner   Identity `json:"owner"`
	Mint    Identity `json:"mint"`
	Balance uint64   `json:"balance"`
	Bump    uint8    `json:"bump"`
}
