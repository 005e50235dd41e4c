package service

import (
	"context"

	"github.com/GoPolymarket/whaleledger/internal/keys"
	"github.com/GoPolymarket/whaleledger/internal/model"
	"github.com/GoPolymarket/whaleledger/internal/pkg/logger"
	"github.com/GoPolymarket/whaleledger/internal/pkg/metrics"
	"github.com/GoPolymarket/whaleledger/internal/repository"
)

// TokenAccounts is the slice of the payment ledger the funding desk uses.
type TokenAccounts interface {
	Credit(ctx context.Context, owner, mint model.Identity, amount uint64) (*model.TokenAccount, error)
	Balance(ctx context.Context, owner, mint model.Identity) (uint64, error)
}

// FundingService lets the authority seed payer token accounts and anyone read
// balances in the subscription mint.
type FundingService struct {
	store    repository.Reader
	accounts TokenAccounts
	mint     model.Identity
}

type CreditRequest struct {
	Owner  model.Identity `json:"owner" binding:"required"`
	Amount uint64         `json:"amount" binding:"required"`
}

func NewFundingService(store repository.Reader, accounts TokenAccounts, mint model.Identity) *FundingService {
	return &FundingService{store: store, accounts: accounts, mint: mint}
}

func (s *FundingService) Mint() model.Identity {
	return s.mint
}

func (s *FundingService) Credit(ctx context.Context, caller model.Identity, req CreditRequest) (acct *model.TokenAccount, err error) {
	defer func() { metrics.Observe("credit", err) }()

	cfg, err := repository.Load[model.ProgramConfig](ctx, s.store, keys.ConfigSlot(), repository.KindConfig)
	if err != nil {
		return nil, notFoundOr(err, "config not initialized")
	}
	if err := requireAuthority(cfg, caller); err != nil {
		return nil, err
	}
	acct, err = s.accounts.Credit(ctx, req.Owner, s.mint, req.Amount)
	if err != nil {
		return nil, err
	}
	logger.ForOp("credit").Info("token account credited",
		"owner", req.Owner.Hex(), "amount", req.Amount, "balance", acct.Balance)
	return acct, nil
}

func (s *FundingService) Balance(ctx context.Context, owner model.Identity) (uint64, error) {
	return s.accounts.Balance(ctx, owner, s.mint)
}
