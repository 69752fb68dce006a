package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pulseboard/backend/internal/auth"
	"github.com/pulseboard/backend/internal/cache"
	"github.com/pulseboard/backend/internal/db"
	apperrors "github.com/pulseboard/backend/internal/errors"
)

// Vote directions accepted on the wire.
const (
	dirRemove = 0
	dirUpvote = 1
)

type VoteHandlers struct {
	posts PostStore
	votes VoteStore
	cache *cache.Cache
}

func NewVoteHandlers(posts PostStore, votes VoteStore, c *cache.Cache) *VoteHandlers {
	return &VoteHandlers{posts: posts, votes: votes, cache: c}
}

type VoteRequest struct {
	PostID int64 `json:"post_id"`
	// Dir is a pointer so a missing field is distinguishable from dir=0.
	Dir *int `json:"dir"`
}

type VoteResponse struct {
	Message string `json:"message"`
}

// Vote handles POST /vote. Per (user, post) pair the state is either voted
// or not; repeating the same action on the same state is an error, not a
// no-op, so double submissions surface to the caller.
func (h *VoteHandlers) Vote(w http.ResponseWriter, r *http.Request) error {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		return apperrors.Unauthorized("not authenticated")
	}

	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}
	if req.PostID < 1 {
		return apperrors.ValidationError("post_id must be a positive integer")
	}
	if req.Dir == nil || (*req.Dir != dirRemove && *req.Dir != dirUpvote) {
		return apperrors.ValidationError("dir must be 0 or 1")
	}

	ctx := r.Context()

	// The post must exist before the vote state is consulted.
	if _, err := h.posts.GetByID(ctx, req.PostID); err != nil {
		if errors.Is(err, db.ErrPostNotFound) {
			return apperrors.PostNotFound(req.PostID)
		}
		return err
	}

	// Advisory fast-path check. The store's (user_id, post_id) key is the
	// authoritative guard against concurrent double-votes.
	voted, err := h.votes.Exists(ctx, user.ID, req.PostID)
	if err != nil {
		return err
	}

	requestID := apperrors.GetRequestID(ctx)

	if *req.Dir == dirUpvote {
		if voted {
			return apperrors.VoteExists(req.PostID)
		}
		if err := h.votes.Create(ctx, user.ID, req.PostID); err != nil {
			switch {
			case errors.Is(err, db.ErrVoteExists):
				return apperrors.VoteExists(req.PostID)
			case errors.Is(err, db.ErrPostNotFound):
				return apperrors.PostNotFound(req.PostID)
			}
			return err
		}
		h.cache.Delete(ctx, cache.PostKey(req.PostID))

		apperrors.WriteJSON(w, requestID, http.StatusCreated, VoteResponse{
			Message: "successfully added vote",
		})
		return nil
	}

	if !voted {
		return apperrors.VoteNotFound()
	}
	if err := h.votes.Delete(ctx, user.ID, req.PostID); err != nil {
		if errors.Is(err, db.ErrVoteNotFound) {
			return apperrors.VoteNotFound()
		}
		return err
	}
	h.cache.Delete(ctx, cache.PostKey(req.PostID))

	apperrors.WriteJSON(w, requestID, http.StatusOK, VoteResponse{
		Message: "successfully deleted vote",
	})
	return nil
}
