package feedback

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tumbuh/backend/internal/domain"
)

func openTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db", "feedback.db")
	store, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func newFeedback(name string, at time.Time) *domain.Feedback {
	return &domain.Feedback{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     "farmer@example.com",
		Rating:    4,
		Message:   "useful advice",
		CreatedAt: at,
	}
}

func TestSQLiteStore_SaveAndRecent(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Save(ctx, newFeedback(fmt.Sprintf("farmer-%d", i), base.Add(time.Duration(i)*time.Hour))))
	}
	// same second as farmer-4 but later within it
	require.NoError(t, store.Save(ctx, newFeedback("farmer-5", base.Add(4*time.Hour+500*time.Millisecond))))

	got, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "farmer-5", got[0].Name)
	assert.Equal(t, "farmer-4", got[1].Name)
	assert.Equal(t, "farmer-3", got[2].Name)
	assert.True(t, got[0].CreatedAt.Equal(base.Add(4*time.Hour+500*time.Millisecond)))
	assert.Equal(t, "farmer@example.com", got[0].Email)
	assert.Equal(t, 4, got[0].Rating)
}

func TestSQLiteStore_DuplicateID(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	fb := newFeedback("a", time.Now())
	require.NoError(t, store.Save(ctx, fb))
	assert.Error(t, store.Save(ctx, fb))
}

func TestSQLiteStore_RejectsInvalidRating(t *testing.T) {
	store, _ := openTestStore(t)
	fb := newFeedback("a", time.Now())
	fb.Rating = 9
	assert.Error(t, store.Save(context.Background(), fb))
}

func TestSQLiteStore_ReopenKeepsDataAndMigrations(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "feedback.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, newFeedback("persisted", time.Now())))
	require.NoError(t, store.Close())

	store, err = Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "persisted", got[0].Name)

	var applied int
	require.NoError(t, store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Equal(t, len(migrations), applied)
}

func TestSQLiteStore_InMemory(t *testing.T) {
	store, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(context.Background(), newFeedback("mem", time.Now())))
	got, err := store.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
