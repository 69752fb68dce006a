package db

import (
	"context"
	"database/sql"
	"errors"
)

var ErrVoteExists = errors.New("vote already exists")
var ErrVoteNotFound = errors.New("vote not found")

// Vote is a (user, post) pair. Its presence means the user has upvoted the
// post; there is no independent id.
type Vote struct {
	UserID int64
	PostID int64
}

type VoteRepository struct {
	db *DB
}

func NewVoteRepository(db *DB) *VoteRepository {
	return &VoteRepository{db: db}
}

// Exists reports whether the user has voted on the post. Callers use this as
// a fast-path check only; Create's unique-violation result is authoritative
// under concurrency.
func (r *VoteRepository) Exists(ctx context.Context, userID, postID int64) (bool, error) {
	query := `SELECT 1 FROM votes WHERE user_id = $1 AND post_id = $2`

	var one int
	err := r.db.QueryRowContext(ctx, query, userID, postID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// Create inserts a vote. A unique violation on the (user_id, post_id)
// primary key maps to ErrVoteExists, a foreign-key violation (post deleted
// concurrently) to ErrPostNotFound.
func (r *VoteRepository) Create(ctx context.Context, userID, postID int64) error {
	query := `INSERT INTO votes (user_id, post_id) VALUES ($1, $2)`

	_, err := r.db.ExecContext(ctx, query, userID, postID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrVoteExists
		}
		if isForeignKeyViolation(err) {
			return ErrPostNotFound
		}
		return err
	}

	return nil
}

// Delete removes a vote, returning ErrVoteNotFound when no row matched.
func (r *VoteRepository) Delete(ctx context.Context, userID, postID int64) error {
	query := `DELETE FROM votes WHERE user_id = $1 AND post_id = $2`

	res, err := r.db.ExecContext(ctx, query, userID, postID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrVoteNotFound
	}

	return nil
}
