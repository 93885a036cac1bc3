package database

import (
	"context"
	"time"
)

type timeoutKey string

const (
	queryTimeoutKey   timeoutKey = "db_query_timeout"
	executeTimeoutKey timeoutKey = "db_execute_timeout"
)

// WithQueryTimeout overrides the configured read timeout for calls made with
// the returned context.
func WithQueryTimeout(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, queryTimeoutKey, d)
}

// WithExecuteTimeout overrides the configured write timeout for calls made
// with the returned context.
func WithExecuteTimeout(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, executeTimeoutKey, d)
}

// withTimeout bounds ctx by the override stored under key, or by def.
func withTimeout(ctx context.Context, def time.Duration, key timeoutKey) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := def
	if v, ok := ctx.Value(key).(time.Duration); ok && v > 0 {
		timeout = v
	}
	return context.WithTimeout(ctx, timeout)
}
