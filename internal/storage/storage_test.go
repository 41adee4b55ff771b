package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestConfigStoreGetMissing(t *testing.T) {
	store := NewConfigStore(openTestDB(t))

	value, ok, err := store.Get(context.Background(), "CRON_EXPRESSION")
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, value)
}

func TestConfigStoreSetThenGet(t *testing.T) {
	store := NewConfigStore(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "CRON_EXPRESSION", "0 3 * * *"))

	value, ok, err := store.Get(ctx, "CRON_EXPRESSION")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "0 3 * * *", value)
}

func TestConfigStoreSetUpserts(t *testing.T) {
	store := NewConfigStore(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "3_of_week_workflow", "weixin-article-workflow"))
	require.NoError(t, store.Set(ctx, "3_of_week_workflow", "other-workflow"))

	value, ok, err := store.Get(ctx, "3_of_week_workflow")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "other-workflow", value)
}

func TestArticleLedgerAppendAndRecent(t *testing.T) {
	db := openTestDB(t)
	loc, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)
	ledger := NewArticleLedger(db, loc)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, loc)
	for i := 0; i < 3; i++ {
		require.NoError(t, ledger.Append(ctx, ArticleInput{
			Title:        "文章",
			WorkflowType: "weixin-article-workflow",
			Platform:     "weixin",
			URL:          "https://example.com/a",
			PublishedAt:  base.Add(time.Duration(i) * time.Hour),
		}))
	}

	articles, err := ledger.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	require.Equal(t, "2026-08-01 14:00:00", articles[0].PublishedAt)
	require.Equal(t, "2026-08-01 13:00:00", articles[1].PublishedAt)
	require.GreaterOrEqual(t, articles[0].PublishedAt, articles[1].PublishedAt)
}

func TestArticleLedgerNormalizesToLocation(t *testing.T) {
	db := openTestDB(t)
	loc, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)
	ledger := NewArticleLedger(db, loc)
	ctx := context.Background()

	// 04:30 UTC is 12:30 in Shanghai.
	require.NoError(t, ledger.Append(ctx, ArticleInput{
		Title:       "t",
		Platform:    "weixin",
		URL:         "https://example.com",
		PublishedAt: time.Date(2026, 8, 1, 4, 30, 0, 0, time.UTC),
	}))

	articles, err := ledger.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	require.Equal(t, "2026-08-01 12:30:00", articles[0].PublishedAt)
}

func TestArticleLedgerOptionalFieldsStoredAsNull(t *testing.T) {
	db := openTestDB(t)
	ledger := NewArticleLedger(db, time.UTC)
	ctx := context.Background()

	require.NoError(t, ledger.Append(ctx, ArticleInput{
		Title:    "no extras",
		Platform: "weixin",
		URL:      "https://example.com",
	}))

	articles, err := ledger.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	require.Nil(t, articles[0].Summary)
	require.Nil(t, articles[0].WorkflowType)
}
