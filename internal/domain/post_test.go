package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPost(t *testing.T) {
	post, err := NewPost(" alice ", 3, "  Launch day ", "first post", testNow)
	require.NoError(t, err)
	assert.Equal(t, PostKey{Creator: "alice", PostID: 3}, post.Key())
	assert.Equal(t, "Launch day", post.Title)
	assert.Equal(t, testNow, post.PublishedAt)
	assert.Equal(t, PoolAddress("alice", 3), post.PoolID())
}

func TestNewPostRejectsBadInput(t *testing.T) {
	cases := map[string]struct {
		creator string
		postID  uint64
		title   string
		content string
		want    error
	}{
		"no creator":    {"", 1, "t", "c", ErrUnauthorized},
		"zero post id":  {"alice", 0, "t", "c", ErrInvalidInput},
		"blank title":   {"alice", 1, "   ", "c", ErrInvalidInput},
		"blank content": {"alice", 1, "t", "", ErrInvalidInput},
		"long title":    {"alice", 1, strings.Repeat("é", MaxPostTitleRunes+1), "c", ErrInvalidInput},
		"long content":  {"alice", 1, "t", strings.Repeat("x", MaxPostContentRunes+1), ErrInvalidInput},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewPost(tc.creator, tc.postID, tc.title, tc.content, testNow)
			require.ErrorIs(t, err, tc.want)
		})
	}

	_, err := NewPost("alice", 1, strings.Repeat("é", MaxPostTitleRunes), "c", testNow)
	require.NoError(t, err)
}
