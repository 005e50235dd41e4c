package service

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/GoPolymarket/whaleledger/internal/model"
	"github.com/GoPolymarket/whaleledger/internal/payment"
	"github.com/GoPolymarket/whaleledger/internal/repository"
)

const (
	basicPrice    uint64 = 5_000_000
	proPrice      uint64 = 20_000_000
	basicDuration int64  = 2_592_000
	proDuration   int64  = 7_776_000
)

var (
	authority = common.HexToHash("0xa0")
	payout    = common.HexToHash("0xfe")
	user      = common.HexToHash("0x01")
	stranger  = common.HexToHash("0x0bad")
	usdcMint  = common.HexToHash("0xc0")
)

type fixedClock struct {
	now atomic.Int64
}

func newClock(now int64) *fixedClock {
	c := &fixedClock{}
	c.now.Store(now)
	return c
}

func (c *fixedClock) Now() int64 { return c.now.Load() }

func (c *fixedClock) Set(now int64) { c.now.Store(now) }

type env struct {
	store     *repository.MemoryStore
	ledger    *payment.TokenLedger
	clock     *fixedClock
	config    *ConfigService
	subs      *SubscriptionService
	registry  *RegistryService
	signals   *SignalService
	publisher *recordingPublisher
	notifier  *MovementNotifier
	funding   *FundingService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := repository.NewMemoryStore()
	ledger := payment.NewTokenLedger(store)
	clock := newClock(1000)
	pub := &recordingPublisher{}
	return &env{
		store:     store,
		ledger:    ledger,
		clock:     clock,
		config:    NewConfigService(store),
		subs:      NewSubscriptionService(store, ledger, clock, usdcMint),
		registry:  NewRegistryService(store, clock),
		signals:   NewSignalService(store),
		publisher: pub,
		notifier:  NewMovementNotifier(store, pub, clock),
		funding:   NewFundingService(store, ledger, usdcMint),
	}
}

// withConfig initializes the singleton with the standard price sheet.
func (e *env) withConfig(t *testing.T) *env {
	t.Helper()
	_, err := e.config.Initialize(context.Background(), authority, InitializeConfigRequest{
		PayoutDestination: payout,
		BasicPrice:        basicPrice,
		ProPrice:          proPrice,
		BasicDuration:     basicDuration,
		ProDuration:       proDuration,
	})
	require.NoError(t, err)
	return e
}

func (e *env) withRegistry(t *testing.T) *env {
	t.Helper()
	_, err := e.registry.Initialize(context.Background(), authority)
	require.NoError(t, err)
	return e
}

func (e *env) fund(t *testing.T, owner model.Identity, amount uint64) {
	t.Helper()
	_, err := e.ledger.Credit(context.Background(), owner, usdcMint, amount)
	require.NoError(t, err)
}

func (e *env) balance(t *testing.T, owner model.Identity) uint64 {
	t.Helper()
	b, err := e.ledger.Balance(context.Background(), owner, usdcMint)
	require.NoError(t, err)
	return b
}

func (e *env) counts(t *testing.T) (uint32, uint32) {
	t.Helper()
	reg, err := e.registry.GetRegistry(context.Background())
	require.NoError(t, err)
	return reg.WhaleCount, reg.DegenCount
}

type recordingPublisher struct {
	events []*model.MovementEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt *model.MovementEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func traderAddr(n byte) common.Address {
	return common.BytesToAddress([]byte{0xee, n})
}
