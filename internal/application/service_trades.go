package application

import (
	"context"

	"github.com/viralforge/trender/internal/domain"
	"github.com/viralforge/trender/internal/ports"
)

func (s *Service) Buy(ctx context.Context, actor Actor, input BuyInput) (TradeResult, error) {
	buyer, err := requireActor(actor)
	if err != nil {
		return TradeResult{}, err
	}
	poolID, err := requirePoolID(input.PoolID)
	if err != nil {
		return TradeResult{}, err
	}
	return runIdempotent(ctx, s, actor, input, func() (TradeResult, error) {
		var out TradeResult
		err := s.withPool(ctx, poolID, func(ctx context.Context, tx ports.LedgerTx) error {
			pool, err := tx.Pools().GetForUpdate(ctx, poolID)
			if err != nil {
				return err
			}
			var holding *domain.Holding
			existing, err := tx.Holdings().Get(ctx, domain.HoldingAddress(buyer, poolID))
			switch {
			case err == nil:
				holding = &existing
			case !isNotFound(err):
				return err
			}
			tr, err := domain.Buy(pool, holding, buyer, input.Amount, input.MaxAcceptablePrice, s.nowFn())
			if err != nil {
				return err
			}
			out, err = s.commitTrade(ctx, tx, tr, actor.RequestID)
			return err
		})
		return out, err
	})
}

func (s *Service) Sell(ctx context.Context, actor Actor, input SellInput) (TradeResult, error) {
	seller, err := requireActor(actor)
	if err != nil {
		return TradeResult{}, err
	}
	poolID, err := requirePoolID(input.PoolID)
	if err != nil {
		return TradeResult{}, err
	}
	return runIdempotent(ctx, s, actor, input, func() (TradeResult, error) {
		var out TradeResult
		err := s.withPool(ctx, poolID, func(ctx context.Context, tx ports.LedgerTx) error {
			pool, err := tx.Pools().GetForUpdate(ctx, poolID)
			if err != nil {
				return err
			}
			holding, err := s.loadSellHolding(ctx, tx, seller, poolID, input.HoldingID)
			if err != nil {
				return err
			}
			tr, err := domain.Sell(pool, holding, seller, input.Amount, input.MinAcceptableRefund, s.nowFn())
			if err != nil {
				return err
			}
			out, err = s.commitTrade(ctx, tx, tr, actor.RequestID)
			return err
		})
		return out, err
	})
}

// loadSellHolding resolves an explicit holding id or the caller's own holding.
// A caller without a holding in the pool has nothing to sell.
func (s *Service) loadSellHolding(ctx context.Context, tx ports.LedgerTx, seller, poolID, holdingID string) (domain.Holding, error) {
	if holdingID != "" {
		return tx.Holdings().Get(ctx, holdingID)
	}
	holding, err := tx.Holdings().Get(ctx, domain.HoldingAddress(seller, poolID))
	if isNotFound(err) {
		return domain.Holding{}, domain.ErrInsufficientHypeBalance
	}
	return holding, err
}

func (s *Service) Release(ctx context.Context, actor Actor, input ReleaseInput) (TradeResult, error) {
	caller, err := requireActor(actor)
	if err != nil {
		return TradeResult{}, err
	}
	poolID, err := requirePoolID(input.PoolID)
	if err != nil {
		return TradeResult{}, err
	}
	return runIdempotent(ctx, s, actor, input, func() (TradeResult, error) {
		var out TradeResult
		err := s.withPool(ctx, poolID, func(ctx context.Context, tx ports.LedgerTx) error {
			pool, err := tx.Pools().GetForUpdate(ctx, poolID)
			if err != nil {
				return err
			}
			tr, err := domain.Release(pool, caller, input.Amount, s.nowFn())
			if err != nil {
				return err
			}
			out, err = s.commitTrade(ctx, tx, tr, actor.RequestID)
			return err
		})
		return out, err
	})
}

// commitTrade applies custody legs, persists the new state and enqueues the
// trade event, in that order.
func (s *Service) commitTrade(ctx context.Context, tx ports.LedgerTx, tr domain.Transition, traceID string) (TradeResult, error) {
	if err := applyTransfers(ctx, tx.Custody(), tr.Transfers); err != nil {
		return TradeResult{}, err
	}
	if err := tx.Pools().Update(ctx, tr.Pool); err != nil {
		return TradeResult{}, err
	}
	if tr.Holding != nil {
		if err := tx.Holdings().Save(ctx, *tr.Holding); err != nil {
			return TradeResult{}, err
		}
	}
	trade := *tr.Trade
	eventID, err := s.enqueueTrade(ctx, tx.Outbox(), trade, traceID)
	if err != nil {
		return TradeResult{}, err
	}
	trade.EventID = eventID
	return TradeResult{Pool: tr.Pool, Holding: tr.Holding, Trade: trade}, nil
}
