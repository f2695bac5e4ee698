package http

import (
	"net/http"

	"github.com/viralforge/trender/internal/application"
	"github.com/viralforge/trender/internal/contracts"
)

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	var req contracts.CreatePostRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_post", err)
		return
	}
	post, err := h.service.CreatePost(r.Context(), actorFromRequest(r), application.CreatePostInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "create_post", err)
		return
	}
	writeSuccess(w, http.StatusCreated, toPostResponse(post))
}

// listPosts serves the feed, newest first. ?creator= narrows it to one user.
func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	posts, err := h.service.ListPosts(r.Context(), application.ListPostsInput{
		Creator: q.Get("creator"),
		Limit:   parseIntDefault(q.Get("limit"), 0),
		Offset:  parseIntDefault(q.Get("offset"), 0),
	})
	if err != nil {
		writeMappedError(r.Context(), w, "list_posts", err)
		return
	}
	out := make([]contracts.PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(p))
	}
	writeSuccess(w, http.StatusOK, out)
}
