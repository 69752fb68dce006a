package health

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/lib/pq"
)

func TestCheckerUnreachableDatabase(t *testing.T) {
	// sql.Open does not dial; the ping inside the checker does and fails.
	db, err := sql.Open("postgres", "host=127.0.0.1 port=1 user=x dbname=x sslmode=disable connect_timeout=1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	checker := NewChecker(db, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp := httptest.NewRecorder()
	checker.Handler().ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}

	var body Response
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if body.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy, got %s", body.Status)
	}
	if body.Components["database"].Status != StatusUnhealthy {
		t.Errorf("expected unhealthy database component, got %+v", body.Components["database"])
	}
	if _, ok := body.Components["cache"]; ok {
		t.Error("cache component should be absent when redis is not configured")
	}
}
