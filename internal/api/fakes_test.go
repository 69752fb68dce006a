package api

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pulseboard/backend/internal/db"
)

// In-memory stores backing the handler tests. They mirror the repository
// error contracts so transitions behave the same as against Postgres.

type fakeUserStore struct {
	mu    sync.Mutex
	seq   int64
	users map[int64]*db.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int64]*db.User)}
}

func (s *fakeUserStore) Create(_ context.Context, user *db.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return db.ErrEmailExists
		}
	}

	s.seq++
	user.ID = s.seq
	user.CreatedAt = time.Now()
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, db.ErrUserNotFound
}

func (s *fakeUserStore) GetByID(_ context.Context, id int64) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, db.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

type voteKey struct {
	userID int64
	postID int64
}

type fakeVoteStore struct {
	mu    sync.Mutex
	votes map[voteKey]bool
}

func newFakeVoteStore() *fakeVoteStore {
	return &fakeVoteStore{votes: make(map[voteKey]bool)}
}

func (s *fakeVoteStore) Exists(_ context.Context, userID, postID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.votes[voteKey{userID, postID}], nil
}

func (s *fakeVoteStore) Create(_ context.Context, userID, postID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := voteKey{userID, postID}
	if s.votes[key] {
		return db.ErrVoteExists
	}
	s.votes[key] = true
	return nil
}

func (s *fakeVoteStore) Delete(_ context.Context, userID, postID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := voteKey{userID, postID}
	if !s.votes[key] {
		return db.ErrVoteNotFound
	}
	delete(s.votes, key)
	return nil
}

func (s *fakeVoteStore) countForPost(postID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for key := range s.votes {
		if key.postID == postID {
			n++
		}
	}
	return n
}

func (s *fakeVoteStore) deleteForPost(postID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.votes {
		if key.postID == postID {
			delete(s.votes, key)
		}
	}
}

type fakePostStore struct {
	mu    sync.Mutex
	seq   int64
	posts map[int64]*db.Post
	users *fakeUserStore
	votes *fakeVoteStore
}

func newFakePostStore(users *fakeUserStore, votes *fakeVoteStore) *fakePostStore {
	return &fakePostStore{
		posts: make(map[int64]*db.Post),
		users: users,
		votes: votes,
	}
}

func (s *fakePostStore) Create(_ context.Context, post *db.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	post.ID = s.seq
	post.Published = true
	post.CreatedAt = time.Now()
	stored := *post
	s.posts[post.ID] = &stored
	return nil
}

func (s *fakePostStore) GetByID(ctx context.Context, id int64) (*db.PostWithMeta, error) {
	s.mu.Lock()
	post, ok := s.posts[id]
	if !ok {
		s.mu.Unlock()
		return nil, db.ErrPostNotFound
	}
	copied := *post
	s.mu.Unlock()

	owner, err := s.users.GetByID(ctx, copied.OwnerID)
	if err != nil {
		return nil, err
	}

	return &db.PostWithMeta{
		Post:  copied,
		Owner: *owner,
		Votes: s.votes.countForPost(id),
	}, nil
}

func (s *fakePostStore) List(ctx context.Context, q db.PostQuery) ([]db.PostWithMeta, error) {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.posts))
	search := db.NormalizeSearchTerm(q.Search)
	for id, p := range s.posts {
		if search == "" || strings.Contains(strings.ToLower(p.Title), search) {
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if q.Offset < len(ids) {
		ids = ids[q.Offset:]
	} else {
		ids = nil
	}
	if q.Limit > 0 && q.Limit < len(ids) {
		ids = ids[:q.Limit]
	}

	posts := make([]db.PostWithMeta, 0, len(ids))
	for _, id := range ids {
		p, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, nil
}

func (s *fakePostStore) Update(_ context.Context, id int64, title, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return db.ErrPostNotFound
	}
	post.Title = title
	post.Content = content
	return nil
}

func (s *fakePostStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	_, ok := s.posts[id]
	if !ok {
		s.mu.Unlock()
		return db.ErrPostNotFound
	}
	delete(s.posts, id)
	s.mu.Unlock()

	// Cascade, matching the votes table's FK behavior.
	s.votes.deleteForPost(id)
	return nil
}
