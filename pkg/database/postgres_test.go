package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/swing/backend/pkg/config"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	// Skip if DATABASE_URL is not set
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	db, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestNew_Disabled(t *testing.T) {
	_, err := New(&config.Config{})
	assert.True(t, errors.Is(err, ErrDisabled))
}

func TestNewWithInvalidURL(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			URL:             "invalid://url",
			MaxConns:        25,
			MinConns:        5,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
	}

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, db.Ping(ctx))

	status, err := db.HealthCheck(ctx)
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.NotZero(t, status.Stats.MaxConns)
	assert.NotZero(t, db.Stats().MaxConns)
}

func TestApplySchema(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := db.ApplySchema(ctx,
		`CREATE TEMP TABLE IF NOT EXISTS schema_probe (id int)`,
		`CREATE TEMP TABLE IF NOT EXISTS schema_probe (id int)`,
	)
	require.NoError(t, err)

	err = db.ApplySchema(ctx, `NOT VALID SQL`)
	assert.Error(t, err)
}

func TestClose_Twice(t *testing.T) {
	db := openTestDB(t)

	// Double close should not panic
	db.Close()
	db.Close()

	var nilDB *DB
	nilDB.Close()
}
