package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/pulseboard/backend/internal/auth"
	apperrors "github.com/pulseboard/backend/internal/errors"
)

type testEnv struct {
	t      *testing.T
	router *Router
	users  *fakeUserStore
	posts  *fakePostStore
	votes  *fakeVoteStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := newFakeUserStore()
	votes := newFakeVoteStore()
	posts := newFakePostStore(users, votes)

	svc, err := auth.NewService(users, "test-secret", "HS256", time.Minute)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}

	router := NewRouter(
		auth.NewHandlers(svc),
		svc,
		NewPostHandlers(posts, nil),
		NewVoteHandlers(posts, votes, nil),
		nil,
	)

	return &testEnv{t: t, router: router, users: users, posts: posts, votes: votes}
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader io.Reader
	contentType := ""
	switch b := body.(type) {
	case nil:
	case url.Values:
		reader = strings.NewReader(b.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		data, err := json.Marshal(b)
		if err != nil {
			e.t.Fatalf("marshal body: %v", err)
		}
		reader = strings.NewReader(string(data))
		contentType = "application/json"
	}

	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp := httptest.NewRecorder()
	e.router.ServeHTTP(resp, req)
	return resp
}

func (e *testEnv) register(email, password string) auth.UserResponse {
	e.t.Helper()

	resp := e.do(http.MethodPost, "/users", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if resp.Code != http.StatusCreated {
		e.t.Fatalf("register %s: expected 201, got %d: %s", email, resp.Code, resp.Body.String())
	}

	var user auth.UserResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &user); err != nil {
		e.t.Fatalf("parse register response: %v", err)
	}
	return user
}

func (e *testEnv) login(email, password string) string {
	e.t.Helper()

	resp := e.do(http.MethodPost, "/login", "", url.Values{
		"username": {email},
		"password": {password},
	})
	if resp.Code != http.StatusOK {
		e.t.Fatalf("login %s: expected 200, got %d: %s", email, resp.Code, resp.Body.String())
	}

	var token auth.TokenResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &token); err != nil {
		e.t.Fatalf("parse login response: %v", err)
	}
	if token.TokenType != "bearer" {
		e.t.Fatalf("expected token_type bearer, got %q", token.TokenType)
	}
	return token.AccessToken
}

func (e *testEnv) createPost(token, title, content string) PostResponse {
	e.t.Helper()

	resp := e.do(http.MethodPost, "/posts", token, map[string]string{
		"title":   title,
		"content": content,
	})
	if resp.Code != http.StatusCreated {
		e.t.Fatalf("create post: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var post PostResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &post); err != nil {
		e.t.Fatalf("parse post response: %v", err)
	}
	return post
}

func errorMessage(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()

	var body apperrors.ErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	return body.Error.Message
}

func TestWelcome(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodGet, "/", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var payload map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse welcome: %v", err)
	}
	if payload["message"] == "" {
		t.Error("expected a welcome message")
	}
}

func TestRegisterAndLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	user := env.register("user5@test.com", "password124")
	if user.Email != "user5@test.com" {
		t.Errorf("expected matching email, got %q", user.Email)
	}
	if user.ID == 0 {
		t.Error("expected an assigned user id")
	}

	dup := env.do(http.MethodPost, "/users", "", map[string]string{
		"email":    "user5@test.com",
		"password": "password124",
	})
	if dup.Code != http.StatusConflict {
		t.Errorf("duplicate register: expected 409, got %d", dup.Code)
	}

	token := env.login("user5@test.com", "password124")
	if len(strings.Split(token, ".")) != 3 {
		t.Errorf("expected a three-part bearer token, got %q", token)
	}
}

func TestLoginEnumerationResistance(t *testing.T) {
	env := newTestEnv(t)
	env.register("user5@test.com", "password124")

	wrongPassword := env.do(http.MethodPost, "/login", "", url.Values{
		"username": {"user5@test.com"},
		"password": {"not-the-password"},
	})
	unknownEmail := env.do(http.MethodPost, "/login", "", url.Values{
		"username": {"nobody@test.com"},
		"password": {"password124"},
	})

	if wrongPassword.Code != http.StatusForbidden {
		t.Errorf("wrong password: expected 403, got %d", wrongPassword.Code)
	}
	if unknownEmail.Code != http.StatusForbidden {
		t.Errorf("unknown email: expected 403, got %d", unknownEmail.Code)
	}

	if errorMessage(t, wrongPassword) != errorMessage(t, unknownEmail) {
		t.Error("login failure messages must be identical for both causes")
	}
}

func TestGetUser(t *testing.T) {
	env := newTestEnv(t)
	created := env.register("user5@test.com", "password124")

	resp := env.do(http.MethodGet, fmt.Sprintf("/users/%d", created.ID), "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	missing := env.do(http.MethodGet, "/users/9999", "", nil)
	if missing.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown user, got %d", missing.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/posts"},
		{http.MethodPost, "/posts"},
		{http.MethodGet, "/posts/1"},
		{http.MethodPut, "/posts/1"},
		{http.MethodDelete, "/posts/1"},
		{http.MethodPost, "/vote"},
	} {
		resp := env.do(route.method, route.path, "", nil)
		if resp.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", route.method, route.path, resp.Code)
		}
		if got := resp.Header().Get("WWW-Authenticate"); got != "Bearer" {
			t.Errorf("%s %s: expected WWW-Authenticate: Bearer, got %q", route.method, route.path, got)
		}
	}
}

func TestPostLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.register("owner@test.com", "password124")
	token := env.login("owner@test.com", "password124")

	post := env.createPost(token, "First Post", "hello world")
	if !post.Published {
		t.Error("expected posts to default to published")
	}
	if post.Owner.Email != "owner@test.com" {
		t.Errorf("expected owner email in response, got %q", post.Owner.Email)
	}

	get := env.do(http.MethodGet, fmt.Sprintf("/posts/%d", post.ID), token, nil)
	if get.Code != http.StatusOK {
		t.Fatalf("get post: expected 200, got %d", get.Code)
	}
	var fetched PostResponse
	if err := json.Unmarshal(get.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("parse post: %v", err)
	}
	if fetched.Votes != 0 {
		t.Errorf("expected 0 votes on a fresh post, got %d", fetched.Votes)
	}

	update := env.do(http.MethodPut, fmt.Sprintf("/posts/%d", post.ID), token, map[string]string{
		"title":   "Updated Title",
		"content": "updated content",
	})
	if update.Code != http.StatusOK {
		t.Fatalf("update post: expected 200, got %d: %s", update.Code, update.Body.String())
	}
	var updated PostResponse
	if err := json.Unmarshal(update.Body.Bytes(), &updated); err != nil {
		t.Fatalf("parse updated post: %v", err)
	}
	if updated.Title != "Updated Title" {
		t.Errorf("expected updated title, got %q", updated.Title)
	}

	del := env.do(http.MethodDelete, fmt.Sprintf("/posts/%d", post.ID), token, nil)
	if del.Code != http.StatusNoContent {
		t.Fatalf("delete post: expected 204, got %d", del.Code)
	}

	gone := env.do(http.MethodGet, fmt.Sprintf("/posts/%d", post.ID), token, nil)
	if gone.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", gone.Code)
	}
}

func TestPostOwnershipEnforced(t *testing.T) {
	env := newTestEnv(t)
	env.register("owner@test.com", "password124")
	env.register("other@test.com", "password124")
	ownerToken := env.login("owner@test.com", "password124")
	otherToken := env.login("other@test.com", "password124")

	post := env.createPost(ownerToken, "Owned Post", "content")

	update := env.do(http.MethodPut, fmt.Sprintf("/posts/%d", post.ID), otherToken, map[string]string{
		"title":   "Hijacked",
		"content": "nope",
	})
	if update.Code != http.StatusForbidden {
		t.Errorf("foreign update: expected 403, got %d", update.Code)
	}

	del := env.do(http.MethodDelete, fmt.Sprintf("/posts/%d", post.ID), otherToken, nil)
	if del.Code != http.StatusForbidden {
		t.Errorf("foreign delete: expected 403, got %d", del.Code)
	}

	missing := env.do(http.MethodDelete, "/posts/9999", ownerToken, nil)
	if missing.Code != http.StatusNotFound {
		t.Errorf("delete missing post: expected 404, got %d", missing.Code)
	}
}

func TestPostListSearchAndPagination(t *testing.T) {
	env := newTestEnv(t)
	env.register("owner@test.com", "password124")
	token := env.login("owner@test.com", "password124")

	env.createPost(token, "Beaches of Portugal", "a")
	env.createPost(token, "Mountain Trails", "b")
	env.createPost(token, "City Beaches", "c")

	list := env.do(http.MethodGet, "/posts?search=beaches", token, nil)
	if list.Code != http.StatusOK {
		t.Fatalf("list posts: expected 200, got %d", list.Code)
	}
	var posts []PostResponse
	if err := json.Unmarshal(list.Body.Bytes(), &posts); err != nil {
		t.Fatalf("parse list: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 matches for 'beaches', got %d", len(posts))
	}

	page := env.do(http.MethodGet, "/posts?limit=1&skip=1", token, nil)
	if page.Code != http.StatusOK {
		t.Fatalf("paginated list: expected 200, got %d", page.Code)
	}
	if err := json.Unmarshal(page.Body.Bytes(), &posts); err != nil {
		t.Fatalf("parse page: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "Mountain Trails" {
		t.Errorf("unexpected page contents: %+v", posts)
	}

	bad := env.do(http.MethodGet, "/posts?limit=zero", token, nil)
	if bad.Code != http.StatusBadRequest {
		t.Errorf("bad limit: expected 400, got %d", bad.Code)
	}
}
