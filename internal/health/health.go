package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// ComponentHealth represents the health of a single component
type ComponentHealth struct {
	Status   Status `json:"status"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// Response represents the full health check response
type Response struct {
	Status     Status                     `json:"status"`
	Timestamp  string                     `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// Checker performs health checks on the database and the optional cache.
type Checker struct {
	db      *sql.DB
	redis   *redis.Client
	timeout time.Duration
}

func NewChecker(db *sql.DB, redisClient *redis.Client) *Checker {
	return &Checker{
		db:      db,
		redis:   redisClient,
		timeout: 5 * time.Second,
	}
}

// Check runs all component checks concurrently and aggregates the result.
// A missing cache degrades the service; a failing database makes it
// unhealthy.
func (c *Checker) Check(ctx context.Context) Response {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	components := make(map[string]ComponentHealth)
	var mu sync.Mutex
	var wg sync.WaitGroup

	record := func(name string, h ComponentHealth) {
		mu.Lock()
		components[name] = h
		mu.Unlock()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		record("database", c.checkDatabase(ctx))
	}()

	if c.redis != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record("cache", c.checkRedis(ctx))
		}()
	}

	wg.Wait()

	status := StatusHealthy
	if components["database"].Status != StatusHealthy {
		status = StatusUnhealthy
	} else if cacheHealth, ok := components["cache"]; ok && cacheHealth.Status != StatusHealthy {
		status = StatusDegraded
	}

	return Response{
		Status:     status,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: components,
	}
}

func (c *Checker) checkDatabase(ctx context.Context) ComponentHealth {
	start := time.Now()
	if err := c.db.PingContext(ctx); err != nil {
		return ComponentHealth{
			Status:   StatusUnhealthy,
			Message:  err.Error(),
			Duration: time.Since(start).String(),
		}
	}
	return ComponentHealth{
		Status:   StatusHealthy,
		Duration: time.Since(start).String(),
	}
}

func (c *Checker) checkRedis(ctx context.Context) ComponentHealth {
	start := time.Now()
	if err := c.redis.Ping(ctx).Err(); err != nil {
		return ComponentHealth{
			Status:   StatusUnhealthy,
			Message:  err.Error(),
			Duration: time.Since(start).String(),
		}
	}
	return ComponentHealth{
		Status:   StatusHealthy,
		Duration: time.Since(start).String(),
	}
}

// Handler returns an http.Handler serving the health check result.
func (c *Checker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := c.Check(r.Context())

		status := http.StatusOK
		if resp.Status == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(resp)
	})
}
