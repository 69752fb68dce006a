package api

import (
	"context"

	"github.com/pulseboard/backend/internal/db"
)

// PostStore is the persistence surface the post handlers need, implemented
// by db.PostRepository.
type PostStore interface {
	Create(ctx context.Context, post *db.Post) error
	GetByID(ctx context.Context, id int64) (*db.PostWithMeta, error)
	List(ctx context.Context, q db.PostQuery) ([]db.PostWithMeta, error)
	Update(ctx context.Context, id int64, title, content string) error
	Delete(ctx context.Context, id int64) error
}

// VoteStore is the persistence surface of the vote toggle, implemented by
// db.VoteRepository.
type VoteStore interface {
	Exists(ctx context.Context, userID, postID int64) (bool, error)
	Create(ctx context.Context, userID, postID int64) error
	Delete(ctx context.Context, userID, postID int64) error
}
