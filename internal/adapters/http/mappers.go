package http

import (
	"github.com/shopspring/decimal"
	"github.com/viralforge/trender/internal/application"
	"github.com/viralforge/trender/internal/contracts"
	"github.com/viralforge/trender/internal/domain"
)

const spotPriceScale = 12

func toPoolResponse(p domain.Pool) contracts.PoolResponse {
	return contracts.PoolResponse{
		PoolID:             p.PoolID,
		Creator:            p.Creator,
		PostID:             p.PostID,
		VaultID:            p.VaultID,
		ReservedBase:       p.ReservedBase.String(),
		ReservedHype:       p.ReservedHype.String(),
		TotalHype:          p.TotalHype.String(),
		CreatorHypeBalance: p.CreatorHypeBalance.String(),
		SpotPrice:          spotPrice(p),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func toPoolViewResponse(v application.PoolView) contracts.PoolResponse {
	out := toPoolResponse(v.Pool)
	if v.Post != nil {
		post := toPostResponse(*v.Post)
		out.Post = &post
	}
	return out
}

func toPostResponse(p domain.Post) contracts.PostResponse {
	return contracts.PostResponse{
		Creator:     p.Creator,
		PostID:      p.PostID,
		PoolID:      p.PoolID(),
		Title:       p.Title,
		Content:     p.Content,
		PublishedAt: p.PublishedAt,
	}
}

// spotPrice is base per hype in display units.
func spotPrice(p domain.Pool) string {
	if p.ReservedHype.IsZero() {
		return "0"
	}
	base := decimal.RequireFromString(p.ReservedBase.String()).Shift(-domain.BaseDecimals)
	hype := decimal.RequireFromString(p.ReservedHype.String()).Shift(-domain.HypeDecimals)
	return base.DivRound(hype, spotPriceScale).String()
}

func toHoldingResponse(h domain.Holding) contracts.HoldingResponse {
	return contracts.HoldingResponse{
		HoldingID: h.HoldingID,
		User:      h.User,
		PoolID:    h.PoolID,
		Amount:    h.Amount.String(),
		UpdatedAt: h.UpdatedAt,
	}
}

func toTradeResponse(t domain.Trade) contracts.TradeResponse {
	return contracts.TradeResponse{
		EventID:      t.EventID,
		Side:         string(t.Side),
		PoolID:       t.PoolID,
		PostID:       t.PostID,
		User:         t.User,
		Amount:       t.Amount,
		PerUnitPrice: t.PerUnitPrice,
		TotalValue:   t.TotalValue,
		Fee:          t.Fee,
		DisplayPrice: domain.DisplayPrice(t.TotalValue, t.Amount).String(),
		OccurredAt:   t.OccurredAt,
	}
}

func toTradeResultResponse(res application.TradeResult) contracts.TradeResultResponse {
	out := contracts.TradeResultResponse{
		Pool:          toPoolResponse(res.Pool),
		Trade:         toTradeResponse(res.Trade),
		EventDelivery: "queued",
	}
	if res.Holding != nil {
		h := toHoldingResponse(*res.Holding)
		out.Holding = &h
	}
	return out
}

func toQuoteResponse(poolID string, q domain.Quote) contracts.QuoteResponse {
	return contracts.QuoteResponse{
		PoolID:       poolID,
		Side:         string(q.Side),
		Amount:       q.HypeAmount.String(),
		Value:        q.Value.String(),
		Fee:          q.Fee.String(),
		Net:          q.Net.String(),
		PerUnitPrice: q.PerUnitPrice.String(),
	}
}

func toCandleResponse(c domain.Candle) contracts.CandleResponse {
	return contracts.CandleResponse{
		Start:  c.Start,
		Open:   c.Open.String(),
		High:   c.High.String(),
		Low:    c.Low.String(),
		Close:  c.Close.String(),
		Volume: c.Volume.String(),
		Trades: c.Trades,
	}
}
