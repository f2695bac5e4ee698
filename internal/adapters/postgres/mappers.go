package postgres

import (
	"github.com/viralforge/trender/internal/domain"
)

func toPostModel(p domain.Post) postModel {
	return postModel{Creator: p.Creator, PostID: p.PostID, Title: p.Title, Content: p.Content, PublishedAt: p.PublishedAt}
}

func fromPostModel(m postModel) domain.Post {
	return domain.Post{Creator: m.Creator, PostID: m.PostID, Title: m.Title, Content: m.Content, PublishedAt: m.PublishedAt.UTC()}
}

func toPoolModel(p domain.Pool) poolModel {
	return poolModel{
		PoolID:             p.PoolID,
		Creator:            p.Creator,
		PostID:             p.PostID,
		VaultID:            p.VaultID,
		ReservedBase:       p.ReservedBase,
		ReservedHype:       p.ReservedHype,
		TotalHype:          p.TotalHype,
		CreatorHypeBalance: p.CreatorHypeBalance,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func fromPoolModel(m poolModel) domain.Pool {
	return domain.Pool{
		PoolID:             m.PoolID,
		Creator:            m.Creator,
		PostID:             m.PostID,
		VaultID:            m.VaultID,
		ReservedBase:       m.ReservedBase,
		ReservedHype:       m.ReservedHype,
		TotalHype:          m.TotalHype,
		CreatorHypeBalance: m.CreatorHypeBalance,
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
	}
}

func toHoldingModel(h domain.Holding) holdingModel {
	return holdingModel{
		HoldingID: h.HoldingID,
		UserID:    h.User,
		PoolID:    h.PoolID,
		Amount:    h.Amount,
		CreatedAt: h.CreatedAt,
		UpdatedAt: h.UpdatedAt,
	}
}

func fromHoldingModel(m holdingModel) domain.Holding {
	return domain.Holding{
		HoldingID: m.HoldingID,
		User:      m.UserID,
		PoolID:    m.PoolID,
		Amount:    m.Amount,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func fromTreasuryModel(m treasuryModel) domain.Treasury {
	return domain.Treasury{Admin: m.Admin, Account: m.Account, CreatedAt: m.CreatedAt.UTC()}
}

func toTradeModel(t domain.Trade) tradeModel {
	return tradeModel{
		EventID:      t.EventID,
		Side:         string(t.Side),
		PoolID:       t.PoolID,
		PostID:       t.PostID,
		UserID:       t.User,
		Amount:       t.Amount,
		PerUnitPrice: t.PerUnitPrice,
		TotalValue:   t.TotalValue,
		Fee:          t.Fee,
		OccurredAt:   t.OccurredAt,
	}
}

func fromTradeModel(m tradeModel) domain.Trade {
	return domain.Trade{
		EventID:      m.EventID,
		Side:         domain.TradeSide(m.Side),
		PoolID:       m.PoolID,
		PostID:       m.PostID,
		User:         m.UserID,
		Amount:       m.Amount,
		PerUnitPrice: m.PerUnitPrice,
		TotalValue:   m.TotalValue,
		Fee:          m.Fee,
		OccurredAt:   m.OccurredAt.UTC(),
	}
}
