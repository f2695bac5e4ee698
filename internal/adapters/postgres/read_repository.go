package postgres

import (
	"context"
	"errors"

	"github.com/viralforge/trender/internal/domain"
	"github.com/viralforge/trender/internal/ports"
	"gorm.io/gorm"
)

type readRepository struct {
	db *gorm.DB
}

func (r *readRepository) ListPosts(ctx context.Context, query ports.PostQuery) ([]domain.Post, error) {
	q := r.db.WithContext(ctx).Model(&postModel{})
	if query.Creator != "" {
		q = q.Where("creator = ?", query.Creator)
	}
	q = q.Order("published_at desc").Order("post_id desc").Order("creator asc")
	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}
	if query.Offset > 0 {
		q = q.Offset(query.Offset)
	}
	var rows []postModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Post, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromPostModel(row))
	}
	return out, nil
}

func (r *readRepository) PostsFor(ctx context.Context, keys []domain.PostKey) (map[domain.PostKey]domain.Post, error) {
	out := make(map[domain.PostKey]domain.Post, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	pairs := make([][]any, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, []any{key.Creator, key.PostID})
	}
	var rows []postModel
	if err := r.db.WithContext(ctx).Where("(creator, post_id) IN ?", pairs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		post := fromPostModel(row)
		out[post.Key()] = post
	}
	return out, nil
}

func (r *readRepository) GetPool(ctx context.Context, poolID string) (domain.Pool, error) {
	var row poolModel
	err := r.db.WithContext(ctx).Where("pool_id = ?", poolID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Pool{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Pool{}, err
	}
	return fromPoolModel(row), nil
}

func (r *readRepository) ListPools(ctx context.Context, query ports.PoolQuery) ([]domain.Pool, error) {
	q := r.db.WithContext(ctx).Model(&poolModel{})
	if query.Creator != "" {
		q = q.Where("creator = ?", query.Creator)
	}
	if query.Sort == ports.PoolSortTrending {
		q = q.Order("total_hype desc")
	}
	q = q.Order("created_at desc").Order("pool_id asc")
	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}
	if query.Offset > 0 {
		q = q.Offset(query.Offset)
	}
	var rows []poolModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Pool, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromPoolModel(row))
	}
	return out, nil
}

func (r *readRepository) GetHolding(ctx context.Context, holdingID string) (domain.Holding, error) {
	return (&holdingRepository{db: r.db}).Get(ctx, holdingID)
}

func (r *readRepository) ListHoldingsByUser(ctx context.Context, user string) ([]domain.Holding, error) {
	var rows []holdingModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", user).Order("updated_at desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Holding, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromHoldingModel(row))
	}
	return out, nil
}

func (r *readRepository) GetTreasury(ctx context.Context) (domain.Treasury, error) {
	return getTreasury(ctx, r.db)
}

func (r *readRepository) Balance(ctx context.Context, account string) (uint64, error) {
	return custodyBalance(ctx, r.db, account)
}

var _ ports.LedgerReader = (*readRepository)(nil)
