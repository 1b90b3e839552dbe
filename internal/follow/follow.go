// Package follow owns mutation of the follow graph.
//
// An edge is stored redundantly: following on the follower's side, follower
// on the followee's side. Both sides are written or removed in a single
// repository transaction so the graph can't be left half-updated.
package follow

import (
	"context"
	"errors"
	"slices"

	"github.com/jdholdren/gossip/internal/gossip"
)

var (
	ErrSelfFollow       = errors.New("cannot follow yourself")
	ErrAlreadyFollowing = errors.New("already following this account")
	ErrNotFollowing     = errors.New("not following this account")

	// ErrNotAFollower means the forward edge exists but the reverse one is
	// missing. That only happens if the rows were edited out-of-band.
	ErrNotAFollower = errors.New("follow graph inconsistent: reverse edge missing")
)

// Graph mutates and queries follow relationships between accounts.
type Graph struct {
	accounts gossip.AccountService
	edges    gossip.FollowService
}

func New(accounts gossip.AccountService, edges gossip.FollowService) *Graph {
	return &Graph{
		accounts: accounts,
		edges:    edges,
	}
}

// Follow makes viewerID follow targetID. Both accounts must exist and the
// edge must not already be present.
func (g *Graph) Follow(ctx context.Context, viewerID, targetID string) error {
	if viewerID == targetID {
		return ErrSelfFollow
	}

	if _, err := g.accounts.Account(ctx, viewerID); err != nil {
		return err
	}
	if _, err := g.accounts.Account(ctx, targetID); err != nil {
		return err
	}

	followings, err := g.edges.Followings(ctx, viewerID)
	if err != nil {
		return err
	}
	if slices.Contains(followings, targetID) {
		return ErrAlreadyFollowing
	}

	err = g.edges.CreateEdges(ctx, viewerID, targetID)
	if errors.Is(err, gossip.ErrConflict) {
		// Lost a race with a concurrent follow of the same pair.
		return ErrAlreadyFollowing
	}
	return err
}

// Unfollow removes the edge between viewerID and targetID.
func (g *Graph) Unfollow(ctx context.Context, viewerID, targetID string) error {
	if _, err := g.accounts.Account(ctx, viewerID); err != nil {
		return err
	}
	if _, err := g.accounts.Account(ctx, targetID); err != nil {
		return err
	}

	followings, err := g.edges.Followings(ctx, viewerID)
	if err != nil {
		return err
	}
	if !slices.Contains(followings, targetID) {
		return ErrNotFollowing
	}

	followers, err := g.edges.Followers(ctx, targetID)
	if err != nil {
		return err
	}
	if !slices.Contains(followers, viewerID) {
		return ErrNotAFollower
	}

	return g.edges.DeleteEdges(ctx, viewerID, targetID)
}
