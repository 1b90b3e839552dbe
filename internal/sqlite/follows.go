package sqlite

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jdholdren/gossip/internal/gossip"
)

// CreateEdges inserts both directions of a follow edge in one transaction:
// the forward row on the follower's side and the reverse row on the
// followee's side. A duplicate on either side reports ErrConflict.
func (r Repo) CreateEdges(ctx context.Context, followerID, followeeID string) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO following_edges (account_id, target_id, created_at) VALUES (?, ?, ?);`,
			followerID, followeeID, now,
		); err != nil {
			if isUniqueViolation(err) {
				return gossip.ErrConflict
			}
			return err
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO follower_edges (account_id, follower_id, created_at) VALUES (?, ?, ?);`,
			followeeID, followerID, now,
		)
		if isUniqueViolation(err) {
			return gossip.ErrConflict
		}
		return err
	})
}

// DeleteEdges removes both directions in one transaction.
func (r Repo) DeleteEdges(ctx context.Context, followerID, followeeID string) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM following_edges WHERE account_id = ? AND target_id = ?;`,
			followerID, followeeID,
		); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			`DELETE FROM follower_edges WHERE account_id = ? AND follower_id = ?;`,
			followeeID, followerID,
		)
		return err
	})
}

func (r Repo) Followings(ctx context.Context, accountID string) ([]string, error) {
	const q = `SELECT target_id FROM following_edges WHERE account_id = ? ORDER BY created_at, target_id;`

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, q, accountID); err != nil {
		return nil, err
	}

	return ids, nil
}

func (r Repo) Followers(ctx context.Context, accountID string) ([]string, error) {
	const q = `SELECT follower_id FROM follower_edges WHERE account_id = ? ORDER BY created_at, follower_id;`

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, q, accountID); err != nil {
		return nil, err
	}

	return ids, nil
}
