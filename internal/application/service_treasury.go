package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/viralforge/trender/internal/domain"
	"github.com/viralforge/trender/internal/ports"
)

// EnsureTreasury creates the singleton treasury on first start. An existing
// treasury is returned unchanged, whatever admin is passed.
func (s *Service) EnsureTreasury(ctx context.Context, admin string) (domain.Treasury, error) {
	admin, err := domain.NormalizeIdentity(admin)
	if err != nil {
		return domain.Treasury{}, fmt.Errorf("%w: treasury admin is required", domain.ErrInvalidInput)
	}
	var out domain.Treasury
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx ports.LedgerTx) error {
		existing, err := tx.Treasury().Get(ctx)
		if err == nil {
			out = existing
			return nil
		}
		if !errors.Is(err, domain.ErrTreasuryNotInitialized) {
			return err
		}
		out = domain.Treasury{Admin: admin, Account: domain.TreasuryAccount, CreatedAt: s.nowFn()}
		return tx.Treasury().Create(ctx, out)
	})
	if errors.Is(err, domain.ErrConflict) {
		return s.reads.GetTreasury(ctx)
	}
	return out, err
}

func (s *Service) GetTreasury(ctx context.Context) (TreasuryView, error) {
	treasury, err := s.reads.GetTreasury(ctx)
	if err != nil {
		return TreasuryView{}, err
	}
	balance, err := s.reads.Balance(ctx, treasury.Account)
	if err != nil {
		return TreasuryView{}, err
	}
	return TreasuryView{Treasury: treasury, Balance: balance}, nil
}

func (s *Service) WithdrawTreasury(ctx context.Context, actor Actor, input WithdrawInput) (WithdrawalResult, error) {
	caller, err := requireActor(actor)
	if err != nil {
		return WithdrawalResult{}, err
	}
	return runIdempotent(ctx, s, actor, input, func() (WithdrawalResult, error) {
		var out WithdrawalResult
		err := s.uow.WithinTx(ctx, func(ctx context.Context, tx ports.LedgerTx) error {
			treasury, err := tx.Treasury().Get(ctx)
			if err != nil {
				return err
			}
			leg, withdrawal, err := domain.Withdraw(treasury, caller, input.Recipient, input.Amount, s.nowFn())
			if err != nil {
				return err
			}
			if err := applyTransfers(ctx, tx.Custody(), []domain.Transfer{leg}); err != nil {
				return err
			}
			balance, err := tx.Custody().Balance(ctx, leg.From)
			if err != nil {
				return err
			}
			if err := s.enqueueWithdrawal(ctx, tx.Outbox(), withdrawal, actor.RequestID); err != nil {
				return err
			}
			out = WithdrawalResult{Withdrawal: withdrawal, TreasuryBalance: balance}
			return nil
		})
		return out, err
	})
}

// CreditCustody funds a user's custody account. Only the treasury admin may
// mint balances.
func (s *Service) CreditCustody(ctx context.Context, actor Actor, input CreditInput) (CustodyBalance, error) {
	caller, err := requireActor(actor)
	if err != nil {
		return CustodyBalance{}, err
	}
	subject, err := domain.NormalizeIdentity(input.Subject)
	if err != nil {
		return CustodyBalance{}, fmt.Errorf("%w: subject is required", domain.ErrInvalidInput)
	}
	if input.Amount == 0 {
		return CustodyBalance{}, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}
	return runIdempotent(ctx, s, actor, input, func() (CustodyBalance, error) {
		out := CustodyBalance{Account: domain.UserAccount(subject)}
		err := s.uow.WithinTx(ctx, func(ctx context.Context, tx ports.LedgerTx) error {
			treasury, err := tx.Treasury().Get(ctx)
			if err != nil {
				return err
			}
			if caller != treasury.Admin {
				return domain.ErrForbidden
			}
			if err := tx.Custody().Credit(ctx, out.Account, input.Amount); err != nil {
				return err
			}
			out.Balance, err = tx.Custody().Balance(ctx, out.Account)
			return err
		})
		return out, err
	})
}

func (s *Service) MyCustodyBalance(ctx context.Context, actor Actor) (CustodyBalance, error) {
	subject, err := requireActor(actor)
	if err != nil {
		return CustodyBalance{}, err
	}
	account := domain.UserAccount(subject)
	balance, err := s.reads.Balance(ctx, account)
	if err != nil {
		return CustodyBalance{}, err
	}
	return CustodyBalance{Account: account, Balance: balance}, nil
}

func (s *Service) MyHoldings(ctx context.Context, actor Actor) ([]domain.Holding, error) {
	subject, err := requireActor(actor)
	if err != nil {
		return nil, err
	}
	return s.reads.ListHoldingsByUser(ctx, subject)
}
