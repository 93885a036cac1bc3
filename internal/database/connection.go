package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nfrund/batepapo/internal/config"
	"github.com/surrealdb/surrealdb.go"
)

// ExponentialBackoffRetryer retries an operation with exponential backoff
// and optional jitter.
type ExponentialBackoffRetryer struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	multiplier float64
	jitter     bool
}

// NewExponentialBackoffRetryer creates a new retryer with sensible defaults
func NewExponentialBackoffRetryer() *ExponentialBackoffRetryer {
	return &ExponentialBackoffRetryer{
		maxRetries: 5,
		baseDelay:  100 * time.Millisecond,
		maxDelay:   30 * time.Second,
		multiplier: 2.0,
		jitter:     true,
	}
}

// Retry executes fn until it succeeds, the attempts run out or ctx is done.
func (r *ExponentialBackoffRetryer) Retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == r.maxRetries {
			break
		}

		delay := r.calculateDelay(attempt)
		slog.DebugContext(ctx, "Retry attempt failed, waiting before next attempt",
			"event", "retry_attempt",
			"attempt", attempt+1, "max_attempts", r.maxRetries+1,
			"delay_ms", delay.Milliseconds(), "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", r.maxRetries+1, lastErr)
}

func (r *ExponentialBackoffRetryer) calculateDelay(attempt int) time.Duration {
	delay := float64(r.baseDelay) * math.Pow(r.multiplier, float64(attempt))
	if delay > float64(r.maxDelay) {
		delay = float64(r.maxDelay)
	}
	if r.jitter {
		// up to 25% on top
		delay += rand.Float64() * delay * 0.25
	}
	return time.Duration(delay)
}

// DBConnection is a managed SurrealDB connection. Stores run their
// statements through WithConnection so a dropped socket is re-established
// transparently.
type DBConnection interface {
	Connect(ctx context.Context) error
	WithConnection(ctx context.Context, fn func(*surrealdb.DB) error) error
	Ping(ctx context.Context) error
	StartMonitoring()
	Close(ctx context.Context) error
	IsHealthy() bool
	GetDBQueryTimeout() time.Duration
	GetDBExecuteTimeout() time.Duration
}

var _ DBConnection = (*Connection)(nil)

// Connection manages a SurrealDB connection with health monitoring and
// reconnection.
type Connection struct {
	cfg     config.Provider
	conn    *surrealdb.DB
	retryer *ExponentialBackoffRetryer
	log     *slog.Logger
	mu      sync.RWMutex
	healthy bool
	done    chan struct{}
	closed  sync.Once
}

// NewConnection creates a new managed database connection. Nothing is
// dialed until Connect.
func NewConnection(cfg config.Provider) *Connection {
	return &Connection{
		cfg:     cfg,
		retryer: NewExponentialBackoffRetryer(),
		log:     slog.Default().With("component", "surrealdb"),
		done:    make(chan struct{}),
	}
}

// Connect establishes the initial database connection, retrying with backoff.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	return c.retryer.Retry(ctx, func() error {
		return c.forceReconnect(ctx)
	})
}

// WithConnection executes fn with the current connection. If fn fails with
// what looks like a transport error the connection is rebuilt and fn is
// retried with backoff.
func (c *Connection) WithConnection(ctx context.Context, fn func(*surrealdb.DB) error) error {
	conn := c.getConnection()
	if conn == nil {
		return NewDBError(ErrNotConnected, "database not connected")
	}

	err := fn(conn)
	if err == nil || !isConnectionError(ctx, err) {
		return err
	}

	c.log.WarnContext(ctx, "Database operation failed, attempting to reconnect with backoff",
		"event", "db_reconnect_triggered", "error", err, "db_url", redactDBURL(c.cfg.GetDBURL()))

	return c.retryer.Retry(ctx, func() error {
		if reconnectErr := c.forceReconnect(ctx); reconnectErr != nil {
			return fmt.Errorf("reconnection failed: %w (original error: %v)", reconnectErr, err)
		}
		return fn(c.getConnection())
	})
}

// Ping asks the server for its version.
func (c *Connection) Ping(ctx context.Context) error {
	return c.checkHealth(ctx)
}

// StartMonitoring begins periodic health checks and automatic reconnection.
func (c *Connection) StartMonitoring() {
	go c.monitorConnection()
}

// Close stops monitoring and closes the connection. It is safe to call more
// than once.
func (c *Connection) Close(ctx context.Context) error {
	c.closed.Do(func() { close(c.done) })

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close(ctx)
	c.conn = nil
	c.healthy = false
	return err
}

// IsHealthy returns the current connection status
func (c *Connection) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.healthy
}

// GetDBQueryTimeout returns the query timeout from the config provider.
func (c *Connection) GetDBQueryTimeout() time.Duration {
	return c.cfg.GetDBQueryTimeout()
}

// GetDBExecuteTimeout returns the execute timeout from the config provider.
func (c *Connection) GetDBExecuteTimeout() time.Duration {
	return c.cfg.GetDBExecuteTimeout()
}

func (c *Connection) getConnection() *surrealdb.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

func (c *Connection) forceReconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reconnect(ctx)
}

// reconnect dials, signs in and selects the namespace. Callers hold c.mu.
func (c *Connection) reconnect(ctx context.Context) error {
	if c.conn != nil {
		_ = c.conn.Close(ctx)
		c.conn = nil
	}

	dbURL := c.cfg.GetDBURL()
	c.log.DebugContext(ctx, "Attempting to connect to database",
		"event", "db_connect_attempt", "db_url", redactDBURL(dbURL))

	conn, err := surrealdb.FromEndpointURLString(ctx, dbURL)
	if err != nil {
		c.log.ErrorContext(ctx, "Failed to create database connection",
			"event", "db_connect_failure", "db_url", redactDBURL(dbURL), "error", err)
		c.healthy = false
		return fmt.Errorf("failed to connect to database at %s: %w", redactDBURL(dbURL), err)
	}

	authData := &surrealdb.Auth{
		Username: c.cfg.GetDBUser(),
		Password: c.cfg.GetDBPass(),
	}
	if _, err = conn.SignIn(ctx, authData); err != nil {
		_ = conn.Close(ctx)
		c.log.ErrorContext(ctx, "Failed to sign in to database",
			"event", "db_auth_failure", "user", c.cfg.GetDBUser(), "error", err)
		c.healthy = false
		return fmt.Errorf("failed to sign in: %w", err)
	}

	if err = conn.Use(ctx, c.cfg.GetDBNs(), c.cfg.GetDBDb()); err != nil {
		_ = conn.Close(ctx)
		c.log.ErrorContext(ctx, "Failed to use namespace/database",
			"event", "db_namespace_failure",
			"namespace", c.cfg.GetDBNs(), "database", c.cfg.GetDBDb(), "error", err)
		c.healthy = false
		return fmt.Errorf("failed to use namespace/db: %w", err)
	}

	c.conn = conn
	c.healthy = true
	c.log.InfoContext(ctx, "Database connection established",
		"event", "db_connect_success", "db_url", redactDBURL(dbURL),
		"namespace", c.cfg.GetDBNs(), "database", c.cfg.GetDBDb())
	return nil
}

func (c *Connection) monitorConnection() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := c.checkHealth(ctx); err != nil {
				c.log.WarnContext(ctx, "Database health check failed, attempting reconnection",
					"event", "db_health_check_failure", "error", err)
				if reconnectErr := c.retryer.Retry(ctx, func() error {
					return c.forceReconnect(ctx)
				}); reconnectErr != nil {
					c.log.ErrorContext(ctx, "Failed to reconnect to database after health check failure",
						"event", "db_reconnect_failure", "error", reconnectErr)
				}
			}
			cancel()
		case <-c.done:
			return
		}
	}
}

func (c *Connection) checkHealth(ctx context.Context) error {
	conn := c.getConnection()
	if conn == nil {
		c.setHealthy(false)
		return NewDBError(ErrNotConnected, "no active database connection")
	}

	if _, err := conn.Version(ctx); err != nil {
		c.setHealthy(false)
		return fmt.Errorf("database health check failed for %s: %w", redactDBURL(c.cfg.GetDBURL()), err)
	}
	c.setHealthy(true)
	return nil
}

func (c *Connection) setHealthy(v bool) {
	c.mu.Lock()
	c.healthy = v
	c.mu.Unlock()
}

// isConnectionError reports whether err looks like a lost connection rather
// than a statement failure. A deadline set by the caller does not count.
func isConnectionError(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "broken pipe") ||
		strings.Contains(errMsg, "unexpected eof") ||
		strings.Contains(errMsg, "use of closed network connection")
}

// redactDBURL returns dbURL with any password replaced by "xxxxx".
func redactDBURL(dbURL string) string {
	parsedURL, err := url.Parse(dbURL)
	if err != nil {
		return "invalid-url"
	}
	return parsedURL.Redacted()
}
