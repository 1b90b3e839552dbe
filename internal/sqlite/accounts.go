package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jdholdren/gossip/internal/gossip"
)

const accountNamespace = "-acc"

func (r Repo) CreateAccount(ctx context.Context, acc gossip.Account) (gossip.Account, error) {
	const q = `INSERT INTO accounts (id, first_name, last_name, username, email, password_hash, age, tier, created_at, updated_at)
	VALUES (:id, :first_name, :last_name, :username, :email, :password_hash, :age, :tier, :created_at, :updated_at);`

	acc.ID = uuid.NewString() + accountNamespace
	if acc.Tier == "" {
		acc.Tier = gossip.TierUnpaid
	}
	now := time.Now().UTC()
	acc.CreatedAt = now
	acc.UpdatedAt = now

	if _, err := r.db.NamedExecContext(ctx, q, acc); err != nil {
		if isUniqueViolation(err) {
			return gossip.Account{}, gossip.ErrConflict
		}
		return gossip.Account{}, err
	}

	return r.Account(ctx, acc.ID)
}

func (r Repo) Account(ctx context.Context, id string) (gossip.Account, error) {
	const q = `SELECT * FROM accounts WHERE id = ?;`

	var acc gossip.Account
	err := r.db.GetContext(ctx, &acc, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return gossip.Account{}, gossip.ErrNotFound
	}
	if err != nil {
		return gossip.Account{}, err
	}

	if acc.Followings, err = r.Followings(ctx, id); err != nil {
		return gossip.Account{}, err
	}
	if acc.Followers, err = r.Followers(ctx, id); err != nil {
		return gossip.Account{}, err
	}

	return acc, nil
}

func (r Repo) AccountByEmail(ctx context.Context, email string) (gossip.Account, error) {
	const q = `SELECT * FROM accounts WHERE email = ?;`

	var acc gossip.Account
	err := r.db.GetContext(ctx, &acc, q, email)
	if errors.Is(err, sql.ErrNoRows) {
		return gossip.Account{}, gossip.ErrNotFound
	}
	if err != nil {
		return gossip.Account{}, err
	}

	return acc, nil
}

// AllAccounts returns a page of accounts plus the total count. Follow edges
// are not loaded for listings.
func (r Repo) AllAccounts(ctx context.Context, limit, offset int) ([]gossip.Account, int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM accounts;`); err != nil {
		return nil, 0, err
	}

	const q = `SELECT * FROM accounts ORDER BY created_at, id LIMIT ? OFFSET ?;`

	var accs []gossip.Account
	if err := r.db.SelectContext(ctx, &accs, q, limit, offset); err != nil {
		return nil, 0, err
	}

	return accs, count, nil
}

func (r Repo) UpdateAccount(ctx context.Context, acc gossip.Account) (gossip.Account, error) {
	const q = `UPDATE accounts
	SET first_name = :first_name,
		last_name = :last_name,
		username = :username,
		email = :email,
		password_hash = :password_hash,
		age = :age,
		updated_at = :updated_at
	WHERE id = :id;`

	acc.UpdatedAt = time.Now().UTC()

	res, err := r.db.NamedExecContext(ctx, q, acc)
	if err != nil {
		if isUniqueViolation(err) {
			return gossip.Account{}, gossip.ErrConflict
		}
		return gossip.Account{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return gossip.Account{}, gossip.ErrNotFound
	}

	return r.Account(ctx, acc.ID)
}

// DeleteAccount removes the account along with its posts and every follow
// edge that mentions it, so no other account is left pointing at a ghost.
func (r Repo) DeleteAccount(ctx context.Context, id string) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?;`, id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return gossip.ErrNotFound
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE author_id = ?;`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM following_edges WHERE account_id = ? OR target_id = ?;`, id, id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM follower_edges WHERE account_id = ? OR follower_id = ?;`, id, id)
		return err
	})
}

func (r Repo) SetTier(ctx context.Context, id string, tier gossip.Tier) error {
	const q = `UPDATE accounts SET tier = ?, updated_at = ? WHERE id = ?;`

	res, err := r.db.ExecContext(ctx, q, tier, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return gossip.ErrNotFound
	}

	return nil
}
