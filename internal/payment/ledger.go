package payment

import (
	"context"
	"errors"
	"math"

	"github.com/GoPolymarket/whaleledger/internal/keys"
	"github.com/GoPolymarket/whaleledger/internal/model"
	"github.com/GoPolymarket/whaleledger/internal/pkg/apperrors"
	"github.com/GoPolymarket/whaleledger/internal/repository"
)

// Transfer moves Amount of Mint from the From account to the To account.
// AuthorizedBy must own the source account.
type Transfer struct {
	From         model.Identity
	To           model.Identity
	Mint         model.Identity
	Amount       uint64
	AuthorizedBy model.Identity
}

// TokenLedger keeps token balances as records in the ledger store, so a
// transfer commits or aborts together with the operation that requested it.
type TokenLedger struct {
	store repository.Store
}

func NewTokenLedger(store repository.Store) *TokenLedger {
	return &TokenLedger{store: store}
}

// Transfer runs inside the caller's atomic unit.
func (l *TokenLedger) Transfer(ctx context.Context, tx repository.Tx, t Transfer) error {
	if t.From != t.AuthorizedBy {
		return apperrors.NewAuthorization("payer account is not owned by the signer")
	}

	srcSlot := keys.TokenAccountSlot(t.From, t.Mint)
	src, err := repository.Load[model.TokenAccount](ctx, tx, srcSlot, repository.KindTokenAccount)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewDependency("payer token account not found", nil)
		}
		return err
	}
	if src.Owner != t.AuthorizedBy {
		return apperrors.NewAuthorization("payer account is not owned by the signer")
	}
	if src.Mint != t.Mint {
		return apperrors.NewDependency("payer token account mint mismatch", nil)
	}
	if src.Balance < t.Amount {
		return apperrors.NewDependency("insufficient balance", nil)
	}

	if t.From == t.To {
		return nil
	}

	dstSlot := keys.TokenAccountSlot(t.To, t.Mint)
	dst, err := repository.Load[model.TokenAccount](ctx, tx, dstSlot, repository.KindTokenAccount)
	created := false
	switch {
	case errors.Is(err, repository.ErrNotFound):
		dst = &model.TokenAccount{Owner: t.To, Mint: t.Mint, Bump: dstSlot.Bump}
		created = true
	case err != nil:
		return err
	}
	if dst.Mint != t.Mint {
		return apperrors.NewDependency("destination token account mint mismatch", nil)
	}
	if dst.Balance > math.MaxUint64-t.Amount {
		return apperrors.NewDependency("destination balance overflow", nil)
	}

	src.Balance -= t.Amount
	dst.Balance += t.Amount

	if err := repository.Save(ctx, tx, srcSlot, repository.KindTokenAccount, src); err != nil {
		return err
	}
	if created {
		return repository.Insert(ctx, tx, dstSlot, repository.KindTokenAccount, dst)
	}
	return repository.Save(ctx, tx, dstSlot, repository.KindTokenAccount, dst)
}

// Credit mints amount into the owner's account, creating it if needed.
func (l *TokenLedger) Credit(ctx context.Context, owner, mint model.Identity, amount uint64) (*model.TokenAccount, error) {
	var out *model.TokenAccount
	err := l.store.Atomic(ctx, func(tx repository.Tx) error {
		slot := keys.TokenAccountSlot(owner, mint)
		acct, err := repository.Load[model.TokenAccount](ctx, tx, slot, repository.KindTokenAccount)
		if errors.Is(err, repository.ErrNotFound) {
			acct = &model.TokenAccount{Owner: owner, Mint: mint, Bump: slot.Bump, Balance: amount}
			out = acct
			return repository.Insert(ctx, tx, slot, repository.KindTokenAccount, acct)
		}
		if err != nil {
			return err
		}
		if acct.Balance > math.MaxUint64-amount {
			return apperrors.NewValidation("credit would overflow balance")
		}
		acct.Balance += amount
		out = acct
		return repository.Save(ctx, tx, slot, repository.KindTokenAccount, acct)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Balance returns zero for accounts that were never funded.
func (l *TokenLedger) Balance(ctx context.Context, owner, mint model.Identity) (uint64, error) {
	acct, err := repository.Load[model.TokenAccount](ctx, l.store, keys.TokenAccountSlot(owner, mint), repository.KindTokenAccount)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return acct.Balance, nil
}
