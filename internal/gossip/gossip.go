package gossip

import (
	"context"
	"errors"
	"time"
)

var (
	ErrConflict = errors.New("resource already exists")
	ErrNotFound = errors.New("resource not found")
)

// Tier is an account's payment status. It gates how much of the feed a
// viewer can see.
type Tier string

const (
	TierUnpaid Tier = "unpaid"
	TierPaid   Tier = "paid"
)

type (
	// Account is a registered user of the network.
	Account struct {
		ID           string    `db:"id"`
		FirstName    string    `db:"first_name"`
		LastName     string    `db:"last_name"`
		Username     string    `db:"username"`
		Email        string    `db:"email"`
		PasswordHash string    `db:"password_hash"`
		Age          int       `db:"age"`
		Tier         Tier      `db:"tier"`
		CreatedAt    time.Time `db:"created_at"`
		UpdatedAt    time.Time `db:"updated_at"`

		// Follow edges, loaded alongside the row.
		Followers  []string `db:"-"`
		Followings []string `db:"-"`
	}

	// Moderator is a distinct principal kind from Account: moderators may
	// edit any post but own none.
	Moderator struct {
		ID           string    `db:"id"`
		Username     string    `db:"username"`
		Email        string    `db:"email"`
		PasswordHash string    `db:"password_hash"`
		CreatedAt    time.Time `db:"created_at"`
	}

	// Post is authored content. Mutable only by its author, or by a
	// moderator through the moderation path.
	Post struct {
		ID        string    `db:"id"`
		Title     string    `db:"title"`
		Content   string    `db:"content"`
		AuthorID  string    `db:"author_id"`
		Tag       string    `db:"tag"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	AccountService interface {
		CreateAccount(ctx context.Context, acc Account) (Account, error)
		Account(ctx context.Context, id string) (Account, error)
		AccountByEmail(ctx context.Context, email string) (Account, error)
		AllAccounts(ctx context.Context, limit, offset int) ([]Account, int, error)
		UpdateAccount(ctx context.Context, acc Account) (Account, error)
		// DeleteAccount removes the account, its posts, and every follow
		// edge referencing it, in one transaction.
		DeleteAccount(ctx context.Context, id string) error
		SetTier(ctx context.Context, id string, tier Tier) error
	}

	FollowService interface {
		// CreateEdges writes both directions of the follow edge atomically.
		CreateEdges(ctx context.Context, followerID, followeeID string) error
		// DeleteEdges removes both directions atomically.
		DeleteEdges(ctx context.Context, followerID, followeeID string) error
		Followings(ctx context.Context, accountID string) ([]string, error)
		Followers(ctx context.Context, accountID string) ([]string, error)
	}

	PostService interface {
		CreatePost(ctx context.Context, p Post) (Post, error)
		Post(ctx context.Context, id string) (Post, error)
		AllPosts(ctx context.Context, limit, offset int) ([]Post, int, error)
		CountPostsByAuthors(ctx context.Context, authorIDs []string) (int, error)
		PostsByAuthors(ctx context.Context, authorIDs []string, offset, limit int, sortBy, order string) ([]Post, error)
		UpdatePost(ctx context.Context, p Post) (Post, error)
		DeletePost(ctx context.Context, id string) error
	}

	ModeratorService interface {
		CreateModerator(ctx context.Context, mod Moderator) (Moderator, error)
		Moderator(ctx context.Context, id string) (Moderator, error)
		ModeratorByEmail(ctx context.Context, email string) (Moderator, error)
	}

	// Repository is everything the services need from persistence.
	Repository interface {
		AccountService
		FollowService
		PostService
		ModeratorService
	}
)

// Page is an offset pagination request. Pages are 1-based.
type Page struct {
	Page  int
	Limit int
}

func (p Page) Validate() error {
	if p.Page < 1 {
		return errors.New("page must be >= 1")
	}
	if p.Limit <= 0 {
		return errors.New("limit must be > 0")
	}
	return nil
}

// Offset is the number of rows to skip for this page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PageTotal computes how many pages cover count rows.
func PageTotal(count, limit int) int {
	return (count + limit - 1) / limit
}
