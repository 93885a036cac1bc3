package database

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/nfrund/batepapo/internal/config"
	"github.com/stretchr/testify/require"
	"github.com/surrealdb/surrealdb.go"
)

// TestMain loads .env.test from the project root so integration tests can
// find a SurrealDB instance.
func TestMain(m *testing.M) {
	if err := godotenv.Load("../../.env.test"); err != nil {
		log.Println("Warning: .env.test file not found, relying on environment variables.")
	}
	os.Exit(m.Run())
}

// setupTestConn connects to the SurrealDB named by SURREAL_URL and wipes
// the chat tables when the test ends.
func setupTestConn(t *testing.T) *Connection {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv("SURREAL_URL") == "" {
		t.Skip("SURREAL_URL not set")
	}

	cfg := &config.Config{
		StoreBackend:     config.BackendSurreal,
		DBUrl:            os.Getenv("SURREAL_URL"),
		DBNs:             os.Getenv("SURREAL_NS"),
		DBDb:             os.Getenv("SURREAL_DB"),
		DBUser:           os.Getenv("SURREAL_USER"),
		DBPass:           os.Getenv("SURREAL_PASS"),
		DBQueryTimeout:   5 * time.Second,
		DBExecuteTimeout: 5 * time.Second,
	}

	ctx := context.Background()
	conn := NewConnection(cfg)
	require.NoError(t, conn.Connect(ctx), "failed to connect to test database")

	wipe := func() {
		_ = conn.WithConnection(ctx, func(db *surrealdb.DB) error {
			return Execute(ctx, db, "DELETE participant; DELETE message;", nil)
		})
	}
	wipe()
	t.Cleanup(func() {
		wipe()
		_ = conn.Close(ctx)
	})
	return conn
}
