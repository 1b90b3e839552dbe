package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/jdholdren/gossip/internal/gossip"
)

const postNamespace = "-post"

func (r Repo) CreatePost(ctx context.Context, p gossip.Post) (gossip.Post, error) {
	const q = `INSERT INTO posts (id, title, content, author_id, tag, created_at, updated_at)
	VALUES (:id, :title, :content, :author_id, :tag, :created_at, :updated_at);`

	p.ID = uuid.NewString() + postNamespace
	if p.Tag == "" {
		p.Tag = "general"
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := r.db.NamedExecContext(ctx, q, p); err != nil {
		return gossip.Post{}, fmt.Errorf("error inserting post: %w", err)
	}

	return p, nil
}

func (r Repo) Post(ctx context.Context, id string) (gossip.Post, error) {
	const q = `SELECT * FROM posts WHERE id = ?;`

	var p gossip.Post
	err := r.db.GetContext(ctx, &p, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return gossip.Post{}, gossip.ErrNotFound
	}
	if err != nil {
		return gossip.Post{}, err
	}

	return p, nil
}

func (r Repo) AllPosts(ctx context.Context, limit, offset int) ([]gossip.Post, int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM posts;`); err != nil {
		return nil, 0, err
	}

	const q = `SELECT * FROM posts ORDER BY created_at DESC, id LIMIT ? OFFSET ?;`

	var posts []gossip.Post
	if err := r.db.SelectContext(ctx, &posts, q, limit, offset); err != nil {
		return nil, 0, err
	}

	return posts, count, nil
}

func (r Repo) CountPostsByAuthors(ctx context.Context, authorIDs []string) (int, error) {
	if len(authorIDs) == 0 {
		return 0, nil
	}

	q, args, err := sq.Select("COUNT(*)").
		From("posts").
		Where(sq.Eq{"author_id": authorIDs}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building count query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, q, args...); err != nil {
		return 0, err
	}

	return count, nil
}

func (r Repo) PostsByAuthors(ctx context.Context, authorIDs []string, offset, limit int, sortBy, order string) ([]gossip.Post, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}

	// Callers validate sortBy against a whitelist; an empty sort falls back
	// to insertion order.
	if sortBy == "" {
		sortBy = "created_at"
	}
	direction := "ASC"
	if strings.EqualFold(order, "desc") {
		direction = "DESC"
	}

	q, args, err := sq.Select("*").
		From("posts").
		Where(sq.Eq{"author_id": authorIDs}).
		OrderBy(sortBy+" "+direction, "id").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building feed query: %w", err)
	}

	var posts []gossip.Post
	if err := r.db.SelectContext(ctx, &posts, q, args...); err != nil {
		return nil, err
	}

	return posts, nil
}

func (r Repo) UpdatePost(ctx context.Context, p gossip.Post) (gossip.Post, error) {
	const q = `UPDATE posts
	SET title = :title,
		content = :content,
		tag = :tag,
		updated_at = :updated_at
	WHERE id = :id;`

	p.UpdatedAt = time.Now().UTC()

	res, err := r.db.NamedExecContext(ctx, q, p)
	if err != nil {
		return gossip.Post{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return gossip.Post{}, gossip.ErrNotFound
	}

	return r.Post(ctx, p.ID)
}

func (r Repo) DeletePost(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?;`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return gossip.ErrNotFound
	}

	return nil
}
