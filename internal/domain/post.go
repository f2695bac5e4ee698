package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxPostTitleRunes   = 200
	MaxPostContentRunes = 10_000
)

// PostKey identifies a post; the pool for a post is keyed the same way.
type PostKey struct {
	Creator string
	PostID  uint64
}

type Post struct {
	Creator     string
	PostID      uint64
	Title       string
	Content     string
	PublishedAt time.Time
}

func (p Post) Key() PostKey { return PostKey{Creator: p.Creator, PostID: p.PostID} }

// PoolID is the address of the pool opened for this post.
func (p Post) PoolID() string { return PoolAddress(p.Creator, p.PostID) }

func NewPost(creator string, postID uint64, title, content string, now time.Time) (Post, error) {
	creator, err := NormalizeIdentity(creator)
	if err != nil {
		return Post{}, err
	}
	if postID == 0 {
		return Post{}, fmt.Errorf("%w: post id must be positive", ErrInvalidInput)
	}
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	switch {
	case title == "":
		return Post{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	case content == "":
		return Post{}, fmt.Errorf("%w: content is required", ErrInvalidInput)
	case utf8.RuneCountInString(title) > MaxPostTitleRunes:
		return Post{}, fmt.Errorf("%w: title exceeds %d characters", ErrInvalidInput, MaxPostTitleRunes)
	case utf8.RuneCountInString(content) > MaxPostContentRunes:
		return Post{}, fmt.Errorf("%w: content exceeds %d characters", ErrInvalidInput, MaxPostContentRunes)
	}
	return Post{Creator: creator, PostID: postID, Title: title, Content: content, PublishedAt: now.UTC()}, nil
}
