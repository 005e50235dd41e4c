package service

import (
	"context"
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoPolymarket/whaleledger/internal/model"
	"github.com/GoPolymarket/whaleledger/internal/pkg/apperrors"
)

func TestInitializeRegistry(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t).withConfig(t)

	_, err := e.registry.Initialize(ctx, stranger)
	assert.True(t, apperrors.Is(err, apperrors.ErrAuthorization))

	reg, err := e.registry.Initialize(ctx, authority)
	require.NoError(t, err)
	assert.Zero(t, reg.WhaleCount)
	assert.Zero(t, reg.DegenCount)
	assert.Equal(t, int64(1000), reg.LastUpdated)

	_, err = e.registry.Initialize(ctx, authority)
	assert.True(t, apperrors.Is(err, apperrors.ErrState))
}

func TestAddTrader(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t).withConfig(t).withRegistry(t)

	linked := common.HexToHash("0x5050")
	trader, err := e.registry.AddTrader(ctx, authority, AddTraderRequest{
		Address:        traderAddr(1),
		Tier:           uint8(model.TierShark),
		LinkedIdentity: &linked,
		TraderStats:    model.TraderStats{TotalPnl: -42, WinRate: 6100, TradeCount: 12, TotalVolume: 9_000_000, Roi: -15},
	})
	require.NoError(t, err)
	assert.Equal(t, model.TierShark, trader.Tier)
	assert.Equal(t, int64(-42), trader.TotalPnl)
	assert.Equal(t, int64(1000), trader.AddedAt)
	require.NotNil(t, trader.LinkedIdentity)
	assert.Equal(t, linked, *trader.LinkedIdentity)

	whales, degens := e.counts(t)
	assert.Equal(t, uint32(1), whales)
	assert.Zero(t, degens)

	got, err := e.registry.GetTrader(ctx, traderAddr(1))
	require.NoError(t, err)
	assert.Equal(t, trader, got)
}

func TestAddTraderDuplicate(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t).withConfig(t).withRegistry(t)

	_, err := e.registry.AddTrader(ctx, authority, AddTraderRequest{Address: traderAddr(1), Tier: 4})
	require.NoError(t, err)
	_, err = e.registry.AddTrader(ctx, authority, AddTraderRequest{Address: traderAddr(1), Tier: 0})
	assert.True(t, apperrors.Is(err, apperrors.ErrState))

	whales, degens := e.counts(t)
	assert.Zero(t, whales)
	assert.Equal(t, uint32(1), degens)
}

func TestAddTraderRejections(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t).withConfig(t).withRegistry(t)

	_, err := e.registry.AddTrader(ctx, stranger, AddTraderRequest{Address: traderAddr(1), Tier: 0})
	assert.True(t, apperrors.Is(err, apperrors.ErrAuthorization))

	_, err = e.registry.AddTrader(ctx, authority, AddTraderRequest{Address: traderAddr(1), Tier: 5})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	// authorization is checked before validation
	_, err = e.registry.AddTrader(ctx, stranger, AddTraderRequest{Address: traderAddr(1), Tier: 9})
	assert.True(t, apperrors.Is(err, apperrors.ErrAuthorization))

	whales, degens := e.counts(t)
	assert.Zero(t, whales)
	assert.Zero(t, degens)
	_, err = e.registry.GetTrader(ctx, traderAddr(1))
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestAddTraderWithoutRegistry(t *testing.T) {
	e := newEnv(t).withConfig(t)
	_, err := e.registry.AddTrader(context.Background(), authority, AddTraderRequest{Address: traderAddr(1)})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestUpdateTraderDegenToWhale(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t).withConfig(t).withRegistry(t)

	_, err := e.registry.AddTrader(ctx, authority, AddTraderRequest{Address: traderAddr(1), Tier: 4})
	require.NoError(t, err)
	whales, degens := e.counts(t)
	require.Equal(t, uint32(0), whales)
	require.Equal(t, uint32(1), degens)

	e.clock.Set(1500)
	trader, err := e.registry.UpdateTrader(ctx, authority, traderAddr(1), UpdateTraderRequest{
		Tier:        0,
		LastTradeAt: 1400,
		TraderStats: model.TraderStats{TotalPnl: 100, TradeCount: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, model.TierWhale, trader.Tier)
	assert.Equal(t, int64(1400), trader.LastTradeAt)
	assert.Equal(t, int64(1500), trader.UpdatedAt)
	assert.Equal(t, int64(1000), trader.AddedAt)
	assert.Equal(t, uint32(3), trader.TradeCount)

	whales, degens = e.counts(t)
	assert.Equal(t, uint32(1), whales)
	assert.Zero(t, degens)
}

func TestUpdateTraderSameTierLeavesCounters(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t).withConfig(t).withRegistry(t)

	_, err := e.registry.AddTrader(ctx, authority, AddTraderRequest{Address: traderAddr(1), Tier: 2})
	require.NoError(t, err)
	_, err = e.registry.UpdateTrader(ctx, authority, traderAddr(1), UpdateTraderRequest{Tier: 2, TraderStats: model.TraderStats{WinRate: 10}})
	require.NoError(t, err)
	_, err = e.registry.UpdateTrader(ctx, authority, traderAddr(1), UpdateTraderRequest{Tier: 3})
	require.NoError(t, err)

	whales, degens := e.counts(t)
	assert.Equal(t, uint32(1), whales)
	assert.Zero(t, degens)
}

func TestUpdateTraderRejections(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t).withConfig(t).withRegistry(t)
	_, err := e.registry.AddTrader(ctx, authority, AddTraderRequest{Address: traderAddr(1), Tier: 4})
	require.NoError(t, err)

	_, err = e.registry.UpdateTrader(ctx, stranger, traderAddr(1), UpdateTraderRequest{Tier: 0})
	assert.True(t, apperrors.Is(err, apperrors.ErrAuthorization))

	_, err = e.registry.UpdateTrader(ctx, authority, traderAddr(1), UpdateTraderRequest{Tier: 5})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	_, err = e.registry.UpdateTrader(ctx, authority, traderAddr(2), UpdateTraderRequest{Tier: 0})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	whales, degens := e.counts(t)
	assert.Zero(t, whales)
	assert.Equal(t, uint32(1), degens)
	trader, err := e.registry.GetTrader(ctx, traderAddr(1))
	require.NoError(t, err)
	assert.Equal(t, model.TierDegen, trader.Tier)
}

func TestRemoveTrader(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t).withConfig(t).withRegistry(t)
	_, err := e.registry.AddTrader(ctx, authority, AddTraderRequest{Address: traderAddr(1), Tier: 4})
	require.NoError(t, err)
	_, err = e.registry.AddTrader(ctx, authority, AddTraderRequest{Address: traderAddr(2), Tier: 1})
	require.NoError(t, err)

	assert.True(t, apperrors.Is(e.registry.RemoveTrader(ctx, stranger, traderAddr(1)), apperrors.ErrAuthorization))

	require.NoError(t, e.registry.RemoveTrader(ctx, authority, traderAddr(1)))
	whales, degens := e.counts(t)
	assert.Equal(t, uint32(1), whales)
	assert.Zero(t, degens)

	err = e.registry.RemoveTrader(ctx, authority, traderAddr(1))
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	// the address can be tracked again after removal
	_, err = e.registry.AddTrader(ctx, authority, AddTraderRequest{Address: traderAddr(1), Tier: 0})
	require.NoError(t, err)
	whales, _ = e.counts(t)
	assert.Equal(t, uint32(2), whales)
}

func TestLinkTrader(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t).withConfig(t).withRegistry(t)
	_, err := e.registry.AddTrader(ctx, authority, AddTraderRequest{Address: traderAddr(1), Tier: 0})
	require.NoError(t, err)

	linked := common.HexToHash("0x77")
	_, err = e.registry.LinkTrader(ctx, stranger, traderAddr(1), LinkTraderRequest{Identity: linked})
	assert.True(t, apperrors.Is(err, apperrors.ErrAuthorization))

	trader, err := e.registry.LinkTrader(ctx, authority, traderAddr(1), LinkTraderRequest{Identity: linked})
	require.NoError(t, err)
	require.NotNil(t, trader.LinkedIdentity)
	assert.Equal(t, linked, *trader.LinkedIdentity)

	_, err = e.registry.LinkTrader(ctx, authority, traderAddr(9), LinkTraderRequest{Identity: linked})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestListTraders(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t).withConfig(t).withRegistry(t)
	for i := byte(1); i <= 3; i++ {
		_, err := e.registry.AddTrader(ctx, authority, AddTraderRequest{Address: traderAddr(i), Tier: i})
		require.NoError(t, err)
	}

	traders, err := e.registry.ListTraders(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, traders, 3)
	assert.Equal(t, traderAddr(1), traders[0].ExternalAddress)
	assert.Equal(t, traderAddr(3), traders[2].ExternalAddress)
}

// The counters must equal a full recount after any sequence of operations.
func TestRegistryCountersMatchRecount(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t).withConfig(t).withRegistry(t)
	rng := rand.New(rand.NewSource(7))

	for step := 0; step < 300; step++ {
		addr := traderAddr(byte(rng.Intn(12)))
		tier := uint8(rng.Intn(6)) // 5 is invalid and must be rejected
		switch rng.Intn(3) {
		case 0:
			_, _ = e.registry.AddTrader(ctx, authority, AddTraderRequest{Address: addr, Tier: tier})
		case 1:
			_, _ = e.registry.UpdateTrader(ctx, authority, addr, UpdateTraderRequest{Tier: tier})
		case 2:
			_ = e.registry.RemoveTrader(ctx, authority, addr)
		}

		traders, err := e.registry.ListTraders(ctx, 500, 0)
		require.NoError(t, err)
		var wantWhale, wantDegen uint32
		for _, tr := range traders {
			if tr.Tier.Bucket() == model.BucketDegen {
				wantDegen++
			} else {
				wantWhale++
			}
		}
		whales, degens := e.counts(t)
		require.Equalf(t, wantWhale, whales, "whale count after step %d", step)
		require.Equalf(t, wantDegen, degens, "degen count after step %d", step)
	}
}
