package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jdholdren/gossip/internal/gossip"
)

const moderatorNamespace = "-mod"

func (r Repo) CreateModerator(ctx context.Context, mod gossip.Moderator) (gossip.Moderator, error) {
	const q = `INSERT INTO moderators (id, username, email, password_hash, created_at)
	VALUES (:id, :username, :email, :password_hash, :created_at);`

	mod.ID = uuid.NewString() + moderatorNamespace
	mod.CreatedAt = time.Now().UTC()

	if _, err := r.db.NamedExecContext(ctx, q, mod); err != nil {
		if isUniqueViolation(err) {
			return gossip.Moderator{}, gossip.ErrConflict
		}
		return gossip.Moderator{}, err
	}

	return mod, nil
}

func (r Repo) Moderator(ctx context.Context, id string) (gossip.Moderator, error) {
	const q = `SELECT * FROM moderators WHERE id = ?;`

	var mod gossip.Moderator
	err := r.db.GetContext(ctx, &mod, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return gossip.Moderator{}, gossip.ErrNotFound
	}
	if err != nil {
		return gossip.Moderator{}, err
	}

	return mod, nil
}

func (r Repo) ModeratorByEmail(ctx context.Context, email string) (gossip.Moderator, error) {
	const q = `SELECT * FROM moderators WHERE email = ?;`

	var mod gossip.Moderator
	err := r.db.GetContext(ctx, &mod, q, email)
	if errors.Is(err, sql.ErrNoRows) {
		return gossip.Moderator{}, gossip.ErrNotFound
	}
	if err != nil {
		return gossip.Moderator{}, err
	}

	return mod, nil
}
