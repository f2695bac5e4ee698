package application

import (
	"context"
	"strings"

	"github.com/viralforge/trender/internal/domain"
	"github.com/viralforge/trender/internal/ports"
)

// CreatePost publishes a post under the caller's next post id. A pool can be
// opened for it later with CreatePool.
func (s *Service) CreatePost(ctx context.Context, actor Actor, input CreatePostInput) (domain.Post, error) {
	creator, err := requireActor(actor)
	if err != nil {
		return domain.Post{}, err
	}
	return runIdempotent(ctx, s, actor, input, func() (domain.Post, error) {
		var post domain.Post
		err := s.uow.WithinTx(ctx, func(ctx context.Context, tx ports.LedgerTx) error {
			postID, err := tx.Posts().NextID(ctx, creator)
			if err != nil {
				return err
			}
			post, err = domain.NewPost(creator, postID, input.Title, input.Content, s.nowFn())
			if err != nil {
				return err
			}
			return tx.Posts().Create(ctx, post)
		})
		if err != nil {
			return domain.Post{}, err
		}
		return post, nil
	})
}

func (s *Service) ListPosts(ctx context.Context, input ListPostsInput) ([]domain.Post, error) {
	query := ports.PostQuery{
		Creator: strings.TrimSpace(input.Creator),
		Limit:   input.Limit,
		Offset:  input.Offset,
	}
	if query.Limit <= 0 {
		query.Limit = s.cfg.DefaultPageSize
	}
	if query.Limit > s.cfg.MaxPageSize {
		query.Limit = s.cfg.MaxPageSize
	}
	if query.Offset < 0 {
		query.Offset = 0
	}
	return s.reads.ListPosts(ctx, query)
}

// PoolViews attaches each pool's post. Pools opened without a post keep a
// nil Post.
func (s *Service) PoolViews(ctx context.Context, pools []domain.Pool) ([]PoolView, error) {
	keys := make([]domain.PostKey, 0, len(pools))
	for _, pool := range pools {
		keys = append(keys, domain.PostKey{Creator: pool.Creator, PostID: pool.PostID})
	}
	posts, err := s.reads.PostsFor(ctx, keys)
	if err != nil {
		return nil, err
	}
	out := make([]PoolView, 0, len(pools))
	for _, pool := range pools {
		view := PoolView{Pool: pool}
		if post, ok := posts[domain.PostKey{Creator: pool.Creator, PostID: pool.PostID}]; ok {
			view.Post = &post
		}
		out = append(out, view)
	}
	return out, nil
}
