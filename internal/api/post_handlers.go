package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/pulseboard/backend/internal/auth"
	"github.com/pulseboard/backend/internal/cache"
	"github.com/pulseboard/backend/internal/db"
	apperrors "github.com/pulseboard/backend/internal/errors"
)

const (
	defaultPostLimit = 10
	maxPostLimit     = 100
	postCacheTTL     = time.Minute
)

type PostHandlers struct {
	posts PostStore
	cache *cache.Cache
}

func NewPostHandlers(posts PostStore, c *cache.Cache) *PostHandlers {
	return &PostHandlers{posts: posts, cache: c}
}

type CreatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type UpdatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type OwnerResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type PostResponse struct {
	ID        int64         `json:"id"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Published bool          `json:"published"`
	CreatedAt time.Time     `json:"created_at"`
	OwnerID   int64         `json:"owner_id"`
	Owner     OwnerResponse `json:"owner"`
	Votes     int64         `json:"votes"`
}

func postResponse(p *db.PostWithMeta) PostResponse {
	return PostResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Published: p.Published,
		CreatedAt: p.CreatedAt,
		OwnerID:   p.OwnerID,
		Owner: OwnerResponse{
			ID:        p.Owner.ID,
			Email:     p.Owner.Email,
			CreatedAt: p.Owner.CreatedAt,
		},
		Votes: p.Votes,
	}
}

// List handles GET /posts
func (h *PostHandlers) List(w http.ResponseWriter, r *http.Request) error {
	q := db.PostQuery{
		Limit:  defaultPostLimit,
		Search: r.URL.Query().Get("search"),
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return apperrors.ValidationError("limit must be a positive integer")
		}
		if limit > maxPostLimit {
			limit = maxPostLimit
		}
		q.Limit = limit
	}
	if raw := r.URL.Query().Get("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			return apperrors.ValidationError("skip must be a non-negative integer")
		}
		q.Offset = skip
	}

	posts, err := h.posts.List(r.Context(), q)
	if err != nil {
		return err
	}

	responses := make([]PostResponse, 0, len(posts))
	for i := range posts {
		responses = append(responses, postResponse(&posts[i]))
	}

	requestID := apperrors.GetRequestID(r.Context())
	apperrors.WriteJSON(w, requestID, http.StatusOK, responses)
	return nil
}

// Create handles POST /posts
func (h *PostHandlers) Create(w http.ResponseWriter, r *http.Request) error {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		return apperrors.Unauthorized("not authenticated")
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}
	if req.Title == "" {
		return apperrors.ValidationError("title is required")
	}
	if req.Content == "" {
		return apperrors.ValidationError("content is required")
	}

	post := &db.Post{
		Title:   req.Title,
		Content: req.Content,
		OwnerID: user.ID,
	}
	if err := h.posts.Create(r.Context(), post); err != nil {
		return err
	}

	resp := postResponse(&db.PostWithMeta{Post: *post, Owner: *user})
	requestID := apperrors.GetRequestID(r.Context())
	apperrors.WriteJSON(w, requestID, http.StatusCreated, resp)
	return nil
}

// Get handles GET /posts/{id}, served through the cache when configured.
func (h *PostHandlers) Get(w http.ResponseWriter, r *http.Request) error {
	id, err := parsePostID(r)
	if err != nil {
		return err
	}

	requestID := apperrors.GetRequestID(r.Context())

	if body, ok := h.cache.Get(r.Context(), cache.PostKey(id)); ok {
		w.Header().Set("Content-Type", "application/json")
		if requestID != "" {
			w.Header().Set(apperrors.RequestIDHeader, requestID)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
		return nil
	}

	post, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrPostNotFound) {
			return apperrors.PostNotFound(id)
		}
		return err
	}

	resp := postResponse(post)
	if body, err := json.Marshal(resp); err == nil {
		h.cache.Set(r.Context(), cache.PostKey(id), string(body), postCacheTTL)
	}

	apperrors.WriteJSON(w, requestID, http.StatusOK, resp)
	return nil
}

// Update handles PUT /posts/{id}, owner only.
func (h *PostHandlers) Update(w http.ResponseWriter, r *http.Request) error {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		return apperrors.Unauthorized("not authenticated")
	}

	id, err := parsePostID(r)
	if err != nil {
		return err
	}

	var req UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}
	if req.Title == "" {
		return apperrors.ValidationError("title is required")
	}
	if req.Content == "" {
		return apperrors.ValidationError("content is required")
	}

	post, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrPostNotFound) {
			return apperrors.PostNotFound(id)
		}
		return err
	}
	if post.OwnerID != user.ID {
		return apperrors.Forbidden("not authorized to perform the requested action")
	}

	if err := h.posts.Update(r.Context(), id, req.Title, req.Content); err != nil {
		if errors.Is(err, db.ErrPostNotFound) {
			return apperrors.PostNotFound(id)
		}
		return err
	}
	h.cache.Delete(r.Context(), cache.PostKey(id))

	updated, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrPostNotFound) {
			return apperrors.PostNotFound(id)
		}
		return err
	}

	requestID := apperrors.GetRequestID(r.Context())
	apperrors.WriteJSON(w, requestID, http.StatusOK, postResponse(updated))
	return nil
}

// Delete handles DELETE /posts/{id}, owner only.
func (h *PostHandlers) Delete(w http.ResponseWriter, r *http.Request) error {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		return apperrors.Unauthorized("not authenticated")
	}

	id, err := parsePostID(r)
	if err != nil {
		return err
	}

	post, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrPostNotFound) {
			return apperrors.PostNotFound(id)
		}
		return err
	}
	if post.OwnerID != user.ID {
		return apperrors.Forbidden("not authorized to perform the requested action")
	}

	if err := h.posts.Delete(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrPostNotFound) {
			return apperrors.PostNotFound(id)
		}
		return err
	}
	h.cache.Delete(r.Context(), cache.PostKey(id))

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func parsePostID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, apperrors.ValidationError("post id must be a positive integer")
	}
	return id, nil
}
