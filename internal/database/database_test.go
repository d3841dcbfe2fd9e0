package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"recipebox/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteMigrates(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := Open(context.Background(), "sqlite", dsn, 1)
	require.NoError(t, err)

	for _, table := range []string{"users", "tokens", "tags", "ingredients", "recipes", "recipe_tags", "recipe_ingredients"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	require.NoError(t, db.Create(&models.User{Email: "a@x.com", Password: "hash"}).Error)
	assert.NoError(t, Ping(context.Background(), db))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "dsn", 1)
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestOpen_GivesUpAfterRetries(t *testing.T) {
	retryInterval = time.Millisecond
	t.Cleanup(func() { retryInterval = time.Second })

	// A directory that does not exist cannot hold a sqlite file.
	_, err := Open(context.Background(), "sqlite", "/nonexistent-dir/sub/recipes.db", 3)
	assert.ErrorContains(t, err, "after 3 attempts")
}
