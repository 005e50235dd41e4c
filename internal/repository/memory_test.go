package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoPolymarket/whaleledger/internal/keys"
)

type counter struct {
	N int `json:"n"`
}

func slotFor(name string) keys.Slot {
	return keys.Derive([]byte("test"), []byte(name))
}

func TestMemoryStoreCreateAndLoad(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	slot := slotFor("a")

	err := s.Atomic(ctx, func(tx Tx) error {
		return Insert(ctx, tx, slot, KindConfig, &counter{N: 1})
	})
	require.NoError(t, err)

	got, err := Load[counter](ctx, s, slot, KindConfig)
	require.NoError(t, err)
	assert.Equal(t, 1, got.N)

	err = s.Atomic(ctx, func(tx Tx) error {
		return Insert(ctx, tx, slot, KindConfig, &counter{N: 2})
	})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = s.Get(ctx, slot, KindSignal)
	assert.ErrorIs(t, err, ErrKindMismatch)

	_, err = s.Get(ctx, slotFor("missing"), KindConfig)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreAbortDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a, b := slotFor("a"), slotFor("b")

	require.NoError(t, s.Atomic(ctx, func(tx Tx) error {
		return Insert(ctx, tx, a, KindConfig, &counter{N: 1})
	}))

	boom := errors.New("boom")
	err := s.Atomic(ctx, func(tx Tx) error {
		if err := Save(ctx, tx, a, KindConfig, &counter{N: 99}); err != nil {
			return err
		}
		if err := Insert(ctx, tx, b, KindConfig, &counter{N: 2}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := Load[counter](ctx, s, a, KindConfig)
	require.NoError(t, err)
	assert.Equal(t, 1, got.N)
	_, err = s.Get(ctx, b, KindConfig)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreCancelledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewMemoryStore()
	slot := slotFor("a")

	err := s.Atomic(ctx, func(tx Tx) error {
		cancel()
		return Insert(ctx, tx, slot, KindConfig, &counter{N: 1})
	})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.Get(context.Background(), slot, KindConfig)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreReadYourWrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	slot := slotFor("a")

	err := s.Atomic(ctx, func(tx Tx) error {
		if err := Insert(ctx, tx, slot, KindConfig, &counter{N: 1}); err != nil {
			return err
		}
		got, err := Load[counter](ctx, tx, slot, KindConfig)
		if err != nil {
			return err
		}
		got.N++
		if err := Save(ctx, tx, slot, KindConfig, got); err != nil {
			return err
		}
		if err := tx.Delete(ctx, slot, KindConfig); err != nil {
			return err
		}
		_, err = tx.View(ctx, slot, KindConfig)
		assert.ErrorIs(t, err, ErrNotFound)
		return Insert(ctx, tx, slot, KindConfig, &counter{N: 7})
	})
	require.NoError(t, err)

	got, err := Load[counter](ctx, s, slot, KindConfig)
	require.NoError(t, err)
	assert.Equal(t, 7, got.N)
}

func TestMemoryStoreListOrderAndPaging(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for i := 0; i < 5; i++ {
		slot := keys.Derive([]byte("list"), []byte{byte(i)})
		require.NoError(t, s.Atomic(ctx, func(tx Tx) error {
			return Insert(ctx, tx, slot, KindSignal, &counter{N: i})
		}))
	}
	require.NoError(t, s.Atomic(ctx, func(tx Tx) error {
		return Insert(ctx, tx, slotFor("other"), KindTrader, &counter{N: 100})
	}))

	recs, err := s.List(ctx, KindSignal, 2, 1)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	first, err := Decode[counter](recs[0])
	require.NoError(t, err)
	second, err := Decode[counter](recs[1])
	require.NoError(t, err)
	assert.Equal(t, 1, first.N)
	assert.Equal(t, 2, second.N)

	recs, err = s.List(ctx, KindSignal, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestMemoryStoreUpdateKeepsListPosition(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a, b := slotFor("a"), slotFor("b")
	require.NoError(t, s.Atomic(ctx, func(tx Tx) error {
		return Insert(ctx, tx, a, KindTrader, &counter{N: 1})
	}))
	require.NoError(t, s.Atomic(ctx, func(tx Tx) error {
		return Insert(ctx, tx, b, KindTrader, &counter{N: 2})
	}))
	require.NoError(t, s.Atomic(ctx, func(tx Tx) error {
		return Save(ctx, tx, a, KindTrader, &counter{N: 10})
	}))

	recs, err := s.List(ctx, KindTrader, 10, 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, a, recs[0].Slot)
	assert.Equal(t, b, recs[1].Slot)
}
