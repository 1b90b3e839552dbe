// Package feed decides which posts a viewer may see and how many.
package feed

import (
	"context"
	"errors"
	"time"

	"github.com/jdholdren/gossip/internal/gossip"
)

// Note attached to a capped unpaid feed response.
const SubscribeNote = "Please subscribe to view more posts."

var ErrInvalidSort = errors.New("unsupported sort field")

// Fields a feed may be sorted by. Anything else is rejected before it
// reaches the query builder.
var sortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"title":      true,
	"tag":        true,
}

type (
	// Item is a post as it appears in a feed. The author id is left off:
	// feeds expose content, not the graph behind it.
	Item struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		Content   string    `json:"content"`
		Tag       string    `json:"tag"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	// Page is one page of a viewer's feed.
	Page struct {
		Data      []Item `json:"data"`
		PageTotal int    `json:"page_total"`
		Note      string `json:"note,omitempty"`
	}
)

// Policy builds feeds subject to the viewer's tier.
type Policy struct {
	accounts gossip.AccountService
	posts    gossip.PostService
}

func New(accounts gossip.AccountService, posts gossip.PostService) *Policy {
	return &Policy{
		accounts: accounts,
		posts:    posts,
	}
}

// Feed returns the requested page of posts authored by the viewer's
// followings.
//
// Paid viewers get up to pg.Limit posts at the requested page. Unpaid
// viewers are hard-capped at a single post from the top of the feed no
// matter what page or limit they ask for, with a note prompting upgrade
// whenever exactly one post comes back. PageTotal is always computed from
// the requested limit so the response shows what a subscription unlocks.
func (p *Policy) Feed(ctx context.Context, viewerID string, pg gossip.Page, sortBy, order string) (Page, error) {
	if err := pg.Validate(); err != nil {
		return Page{}, err
	}
	if sortBy != "" && !sortFields[sortBy] {
		return Page{}, ErrInvalidSort
	}

	viewer, err := p.accounts.Account(ctx, viewerID)
	if err != nil {
		return Page{}, err
	}

	count, err := p.posts.CountPostsByAuthors(ctx, viewer.Followings)
	if err != nil {
		return Page{}, err
	}

	offset, limit := pg.Offset(), pg.Limit
	if viewer.Tier != gossip.TierPaid {
		offset, limit = 0, 1
	}

	posts, err := p.posts.PostsByAuthors(ctx, viewer.Followings, offset, limit, sortBy, order)
	if err != nil {
		return Page{}, err
	}

	items := make([]Item, 0, len(posts))
	for _, post := range posts {
		items = append(items, Item{
			ID:        post.ID,
			Title:     post.Title,
			Content:   post.Content,
			Tag:       post.Tag,
			CreatedAt: post.CreatedAt,
			UpdatedAt: post.UpdatedAt,
		})
	}

	page := Page{
		Data:      items,
		PageTotal: gossip.PageTotal(count, pg.Limit),
	}
	if viewer.Tier != gossip.TierPaid && len(items) == 1 {
		page.Note = SubscribeNote
	}

	return page, nil
}
