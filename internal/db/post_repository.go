package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrPostNotFound = errors.New("post not found")

type Post struct {
	ID        int64
	Title     string
	Content   string
	Published bool
	CreatedAt time.Time
	OwnerID   int64
}

// PostWithMeta is a post joined with its owner and current vote count.
type PostWithMeta struct {
	Post
	Owner User
	Votes int64
}

// PostQuery holds list filters. Search matches against the post title.
type PostQuery struct {
	Limit  int
	Offset int
	Search string
}

type PostRepository struct {
	db *DB
}

func NewPostRepository(db *DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a new post and fills in the generated id, published default
// and created_at.
func (r *PostRepository) Create(ctx context.Context, post *Post) error {
	query := `
		INSERT INTO posts (title, content, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, published, created_at
	`

	return r.db.QueryRowContext(ctx, query, post.Title, post.Content, post.OwnerID).
		Scan(&post.ID, &post.Published, &post.CreatedAt)
}

const postWithMetaColumns = `
	SELECT p.id, p.title, p.content, p.published, p.created_at, p.owner_id,
	       u.id, u.email, u.created_at,
	       COALESCE(count(v.post_id), 0) AS votes
	FROM posts p
	JOIN users u ON u.id = p.owner_id
	LEFT JOIN votes v ON v.post_id = p.id
`

// GetByID retrieves a post with its owner and vote count.
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*PostWithMeta, error) {
	query := postWithMetaColumns + `
		WHERE p.id = $1
		GROUP BY p.id, u.id
	`

	var p PostWithMeta
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Title, &p.Content, &p.Published, &p.CreatedAt, &p.OwnerID,
		&p.Owner.ID, &p.Owner.Email, &p.Owner.CreatedAt,
		&p.Votes,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	return &p, nil
}

// List returns posts with owners and vote counts, filtered by a
// case-insensitive title search and paginated with limit/offset.
func (r *PostRepository) List(ctx context.Context, q PostQuery) ([]PostWithMeta, error) {
	query := postWithMetaColumns + `
		WHERE p.title ILIKE $1
		GROUP BY p.id, u.id
		ORDER BY p.id
		LIMIT $2 OFFSET $3
	`

	search := "%" + NormalizeSearchTerm(q.Search) + "%"
	rows, err := r.db.QueryContext(ctx, query, search, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []PostWithMeta{}
	for rows.Next() {
		var p PostWithMeta
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Content, &p.Published, &p.CreatedAt, &p.OwnerID,
			&p.Owner.ID, &p.Owner.Email, &p.Owner.CreatedAt,
			&p.Votes,
		); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}

	return posts, rows.Err()
}

// Update replaces the title and content of an existing post.
func (r *PostRepository) Update(ctx context.Context, id int64, title, content string) error {
	query := `
		UPDATE posts SET title = $1, content = $2
		WHERE id = $3
	`

	res, err := r.db.ExecContext(ctx, query, title, content, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPostNotFound
	}

	return nil
}

// Delete removes a post. Votes on the post are removed by the cascade.
func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPostNotFound
	}

	return nil
}
