package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/viralforge/trender/internal/domain"
	"github.com/viralforge/trender/internal/ports"
	"gorm.io/gorm"
)

type postRepository struct {
	db *gorm.DB
}

func (r *postRepository) Get(ctx context.Context, creator string, postID uint64) (domain.Post, error) {
	var row postModel
	err := r.db.WithContext(ctx).Where("creator = ? AND post_id = ?", creator, postID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Post{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Post{}, err
	}
	return fromPostModel(row), nil
}

// NextID reads the highest id without locking; two creates racing on the
// same id leave one of them with domain.ErrConflict from Create.
func (r *postRepository) NextID(ctx context.Context, creator string) (uint64, error) {
	var last struct {
		PostID uint64 `gorm:"column:post_id"`
	}
	err := r.db.WithContext(ctx).Raw(`
SELECT COALESCE(MAX(post_id), 0) AS post_id FROM (
    SELECT post_id FROM posts WHERE creator = ?
    UNION ALL
    SELECT post_id FROM pools WHERE creator = ?
) used`, creator, creator).Scan(&last).Error
	if err != nil {
		return 0, err
	}
	if last.PostID == math.MaxUint64 {
		return 0, domain.ErrArithmeticOverflow
	}
	return last.PostID + 1, nil
}

func (r *postRepository) Create(ctx context.Context, post domain.Post) error {
	row := toPostModel(post)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: post already exists", domain.ErrConflict)
		}
		return err
	}
	return nil
}

var _ ports.PostRepository = (*postRepository)(nil)
