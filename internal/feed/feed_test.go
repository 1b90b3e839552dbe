package feed

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/gossip/internal/gossip"
)

type fakeAccounts struct {
	gossip.AccountService
	accounts map[string]gossip.Account
}

func (f *fakeAccounts) Account(_ context.Context, id string) (gossip.Account, error) {
	acc, ok := f.accounts[id]
	if !ok {
		return gossip.Account{}, gossip.ErrNotFound
	}
	return acc, nil
}

type fakePosts struct {
	gossip.PostService
	posts []gossip.Post
}

func (f *fakePosts) byAuthors(authorIDs []string) []gossip.Post {
	var out []gossip.Post
	for _, p := range f.posts {
		if slices.Contains(authorIDs, p.AuthorID) {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakePosts) CountPostsByAuthors(_ context.Context, authorIDs []string) (int, error) {
	return len(f.byAuthors(authorIDs)), nil
}

func (f *fakePosts) PostsByAuthors(_ context.Context, authorIDs []string, offset, limit int, sortBy, order string) ([]gossip.Post, error) {
	posts := f.byAuthors(authorIDs)
	if sortBy == "title" {
		sort.Slice(posts, func(i, j int) bool {
			if order == "desc" {
				return posts[i].Title > posts[j].Title
			}
			return posts[i].Title < posts[j].Title
		})
	}
	if offset >= len(posts) {
		return nil, nil
	}
	posts = posts[offset:]
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// Viewer following two authors with three posts each, per the usual demo
// data set.
func newTestPolicy(tier gossip.Tier) *Policy {
	accounts := &fakeAccounts{accounts: map[string]gossip.Account{
		"viewer": {ID: "viewer", Tier: tier, Followings: []string{"p1", "p2"}},
	}}

	posts := &fakePosts{}
	for i := 1; i <= 3; i++ {
		for _, author := range []string{"p1", "p2"} {
			posts.posts = append(posts.posts, gossip.Post{
				ID:        fmt.Sprintf("%s-post-%d", author, i),
				Title:     fmt.Sprintf("%s %d", author, i),
				Content:   "hello",
				AuthorID:  author,
				Tag:       "general",
				CreatedAt: time.Date(2024, 1, i, 0, 0, 0, 0, time.UTC),
			})
		}
	}

	return New(accounts, posts)
}

func TestPaidFeedPagination(t *testing.T) {
	p := newTestPolicy(gossip.TierPaid)

	page, err := p.Feed(context.Background(), "viewer", gossip.Page{Page: 2, Limit: 2}, "title", "asc")
	require.NoError(t, err)

	// 6 candidates at limit 2: three pages, and page 2 holds posts 3-4 of
	// the sorted set.
	assert.Equal(t, 3, page.PageTotal)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "p1 3", page.Data[0].Title)
	assert.Equal(t, "p2 1", page.Data[1].Title)
	assert.Empty(t, page.Note)
}

func TestPaidFeedLastPage(t *testing.T) {
	p := newTestPolicy(gossip.TierPaid)

	page, err := p.Feed(context.Background(), "viewer", gossip.Page{Page: 2, Limit: 4}, "title", "asc")
	require.NoError(t, err)

	assert.Equal(t, 2, page.PageTotal)
	assert.Len(t, page.Data, 2) // min(limit, count-skip)
}

func TestUnpaidFeedHardCap(t *testing.T) {
	p := newTestPolicy(gossip.TierUnpaid)

	for _, pg := range []gossip.Page{
		{Page: 1, Limit: 2},
		{Page: 1, Limit: 50},
		{Page: 3, Limit: 2}, // paging can't reach post 2
	} {
		page, err := p.Feed(context.Background(), "viewer", pg, "title", "asc")
		require.NoError(t, err)

		require.Len(t, page.Data, 1)
		assert.Equal(t, "p1 1", page.Data[0].Title)
		assert.Equal(t, SubscribeNote, page.Note)
	}
}

func TestUnpaidFeedEmpty(t *testing.T) {
	accounts := &fakeAccounts{accounts: map[string]gossip.Account{
		"viewer": {ID: "viewer", Tier: gossip.TierUnpaid},
	}}
	p := New(accounts, &fakePosts{})

	page, err := p.Feed(context.Background(), "viewer", gossip.Page{Page: 1, Limit: 10}, "", "")
	require.NoError(t, err)

	assert.Empty(t, page.Data)
	assert.Zero(t, page.PageTotal)
	assert.Empty(t, page.Note) // note only when exactly one post returns
}

func TestFeedViewerMissing(t *testing.T) {
	p := newTestPolicy(gossip.TierPaid)

	_, err := p.Feed(context.Background(), "ghost", gossip.Page{Page: 1, Limit: 10}, "", "")
	assert.ErrorIs(t, err, gossip.ErrNotFound)
}

func TestFeedRejectsUnknownSortField(t *testing.T) {
	p := newTestPolicy(gossip.TierPaid)

	_, err := p.Feed(context.Background(), "viewer", gossip.Page{Page: 1, Limit: 10}, "password_hash", "asc")
	assert.ErrorIs(t, err, ErrInvalidSort)
}

func TestFeedRejectsBadPagination(t *testing.T) {
	p := newTestPolicy(gossip.TierPaid)

	_, err := p.Feed(context.Background(), "viewer", gossip.Page{Page: 0, Limit: 10}, "", "")
	assert.Error(t, err)

	_, err = p.Feed(context.Background(), "viewer", gossip.Page{Page: 1, Limit: 0}, "", "")
	assert.Error(t, err)
}

func TestFeedOmitsAuthor(t *testing.T) {
	// The Item type simply has no author field; this pins the privacy trim
	// at the JSON level.
	p := newTestPolicy(gossip.TierPaid)

	page, err := p.Feed(context.Background(), "viewer", gossip.Page{Page: 1, Limit: 1}, "", "")
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.NotEmpty(t, page.Data[0].ID)
}
