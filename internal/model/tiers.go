package model

import "github.com/GoPolymarket/whaleledger/internal/pkg/apperrors"

// SubscriptionTier is the plan recorded on a Subscription.
type SubscriptionTier uint8

const (
	SubscriptionNone  SubscriptionTier = 0
	SubscriptionBasic SubscriptionTier = 1
	SubscriptionPro   SubscriptionTier = 2
)

// ParsePurchasableTier converts a wire value into a tier that can be bought.
// None is a valid stored value but cannot be purchased.
func ParsePurchasableTier(v uint8) (SubscriptionTier, error) {
	switch SubscriptionTier(v) {
	case SubscriptionBasic, SubscriptionPro:
		return SubscriptionTier(v), nil
	default:
		return SubscriptionNone, apperrors.NewValidation("invalid subscription tier %d", v)
	}
}

func (t SubscriptionTier) String() string {
	switch t {
	case SubscriptionNone:
		return "none"
	case SubscriptionBasic:
		return "basic"
	case SubscriptionPro:
		return "pro"
	default:
		return "unknown"
	}
}

// TraderTier classifies a tracked trader by performance.
type TraderTier uint8

const (
	TierWhale  TraderTier = 0
	TierShark  TraderTier = 1
	TierFish   TraderTier = 2
	TierShrimp TraderTier = 3
	TierDegen  TraderTier = 4
)

func ParseTraderTier(v uint8) (TraderTier, error) {
	if v > uint8(TierDegen) {
		return 0, apperrors.NewValidation("invalid trader tier %d", v)
	}
	return TraderTier(v), nil
}

// Bucket collapses the five tiers into the two counters kept on the registry.
func (t TraderTier) Bucket() Bucket {
	if t == TierDegen {
		return BucketDegen
	}
	return BucketWhale
}

func (t TraderTier) String() string {
	switch t {
	case TierWhale:
		return "whale"
	case TierShark:
		return "shark"
	case TierFish:
		return "fish"
	case TierShrimp:
		return "shrimp"
	case TierDegen:
		return "degen"
	default:
		return "unknown"
	}
}

type Bucket string

const (
	BucketWhale Bucket = "whale"
	BucketDegen Bucket = "degen"
)

// Severity grades a confidence anomaly.
type Severity uint8

const (
	SeverityLow    Severity = 0
	SeverityMedium Severity = 1
	SeverityHigh   Severity = 2
)

func ParseSeverity(v uint8) (Severity, error) {
	if v > uint8(SeverityHigh) {
		return 0, apperrors.NewValidation("invalid signal severity %d", v)
	}
	return Severity(v), nil
}

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// TokenKind and Direction describe a movement on the owning chain.
type TokenKind string

const (
	TokenSOL  TokenKind = "SOL"
	TokenUSDC TokenKind = "USDC"
)

func ParseTokenKind(v string) (TokenKind, error) {
	switch TokenKind(v) {
	case TokenSOL, TokenUSDC:
		return TokenKind(v), nil
	default:
		return "", apperrors.NewValidation("invalid token kind %q", v)
	}
}

type Direction string

const (
	DirectionDeposit  Direction = "Deposit"
	DirectionWithdraw Direction = "Withdraw"
)

func ParseDirection(v string) (Direction, error) {
	switch Direction(v) {
	case DirectionDeposit, DirectionWithdraw:
		return Direction(v), nil
	default:
		return "", apperrors.NewValidation("invalid movement direction %q", v)
	}
}
