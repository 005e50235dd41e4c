package payment

import (
	"context"
	"math"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoPolymarket/whaleledger/internal/pkg/apperrors"
	"github.com/GoPolymarket/whaleledger/internal/repository"
)

var (
	alice = common.HexToHash("0xa1")
	bob   = common.HexToHash("0xb0")
	usdc  = common.HexToHash("0xc0")
	other = common.HexToHash("0xd0")
)

func transfer(t *testing.T, l *TokenLedger, s repository.Store, tr Transfer) error {
	t.Helper()
	ctx := context.Background()
	return s.Atomic(ctx, func(tx repository.Tx) error {
		return l.Transfer(ctx, tx, tr)
	})
}

func TestTransferMovesFunds(t *testing.T) {
	ctx := context.Background()
	s := repository.NewMemoryStore()
	l := NewTokenLedger(s)

	_, err := l.Credit(ctx, alice, usdc, 10_000_000)
	require.NoError(t, err)

	err = transfer(t, l, s, Transfer{From: alice, To: bob, Mint: usdc, Amount: 5_000_000, AuthorizedBy: alice})
	require.NoError(t, err)

	got, err := l.Balance(ctx, alice, usdc)
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000), got)
	got, err = l.Balance(ctx, bob, usdc)
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000), got)
}

func TestTransferRejections(t *testing.T) {
	ctx := context.Background()
	s := repository.NewMemoryStore()
	l := NewTokenLedger(s)
	_, err := l.Credit(ctx, alice, usdc, 100)
	require.NoError(t, err)

	tests := []struct {
		name string
		tr   Transfer
		want apperrors.ErrorType
	}{
		{"signer does not own source", Transfer{From: alice, To: bob, Mint: usdc, Amount: 1, AuthorizedBy: bob}, apperrors.ErrAuthorization},
		{"insufficient balance", Transfer{From: alice, To: bob, Mint: usdc, Amount: 101, AuthorizedBy: alice}, apperrors.ErrDependency},
		{"missing source account", Transfer{From: bob, To: alice, Mint: usdc, Amount: 1, AuthorizedBy: bob}, apperrors.ErrDependency},
		{"other mint", Transfer{From: alice, To: bob, Mint: other, Amount: 1, AuthorizedBy: alice}, apperrors.ErrDependency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := transfer(t, l, s, tt.tr)
			assert.True(t, apperrors.Is(err, tt.want), "got %v", err)
		})
	}

	got, err := l.Balance(ctx, alice, usdc)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), got)
}

func TestTransferZeroAmountAndSelf(t *testing.T) {
	ctx := context.Background()
	s := repository.NewMemoryStore()
	l := NewTokenLedger(s)
	_, err := l.Credit(ctx, alice, usdc, 10)
	require.NoError(t, err)

	require.NoError(t, transfer(t, l, s, Transfer{From: alice, To: alice, Mint: usdc, Amount: 10, AuthorizedBy: alice}))
	require.NoError(t, transfer(t, l, s, Transfer{From: alice, To: bob, Mint: usdc, Amount: 0, AuthorizedBy: alice}))

	got, err := l.Balance(ctx, alice, usdc)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), got)
}

func TestTransferDestinationOverflow(t *testing.T) {
	ctx := context.Background()
	s := repository.NewMemoryStore()
	l := NewTokenLedger(s)
	_, err := l.Credit(ctx, alice, usdc, 10)
	require.NoError(t, err)
	_, err = l.Credit(ctx, bob, usdc, math.MaxUint64)
	require.NoError(t, err)

	err = transfer(t, l, s, Transfer{From: alice, To: bob, Mint: usdc, Amount: 1, AuthorizedBy: alice})
	assert.True(t, apperrors.Is(err, apperrors.ErrDependency))

	got, err := l.Balance(ctx, alice, usdc)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), got)
}

func TestCreditOverflow(t *testing.T) {
	ctx := context.Background()
	l := NewTokenLedger(repository.NewMemoryStore())
	_, err := l.Credit(ctx, alice, usdc, math.MaxUint64)
	require.NoError(t, err)
	_, err = l.Credit(ctx, alice, usdc, 1)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestBalanceOfUnfundedAccount(t *testing.T) {
	l := NewTokenLedger(repository.NewMemoryStore())
	got, err := l.Balance(context.Background(), bob, usdc)
	require.NoError(t, err)
	assert.Zero(t, got)
}
