package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/actuator/internal/models"
)

func record(summary, status string, ts time.Time) models.ExecutionRecord {
	return models.ExecutionRecord{
		InsightID:      "id-" + summary,
		InsightSummary: summary,
		ActionPlan: []models.Action{
			models.NewAction(models.KindAddOpportunityDetection, "unified_trading_system.py", "d", models.PriorityHigh),
		},
		ExecutionResults: []models.ExecutionResult{
			{Action: "add_opportunity_detection", Status: models.StatusCompleted, Verified: true},
		},
		Timestamp: ts,
		Status:    status,
	}
}

// backends runs fn against every Store implementation.
func backends(t *testing.T, fn func(t *testing.T, open func() Store)) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.jsonl")
		fn(t, func() Store {
			s, err := Open(BackendFile, path)
			require.NoError(t, err)
			return s
		})
	})
	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.db")
		fn(t, func() Store {
			s, err := Open(BackendSQLite, path)
			require.NoError(t, err)
			return s
		})
	})
}

func TestAppendAndRecords(t *testing.T) {
	backends(t, func(t *testing.T, open func() Store) {
		s := open()
		defer s.Close()
		ctx := context.Background()
		base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

		require.NoError(t, s.Append(ctx, record("first", models.RecordCompleted, base)))
		require.NoError(t, s.Append(ctx, record("second", models.RecordFailed, base.Add(time.Minute))))

		records, err := s.Records(ctx)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "first", records[0].InsightSummary)
		assert.Equal(t, "second", records[1].InsightSummary)
		assert.NotEmpty(t, records[0].ID, "IDs are assigned on append")
		assert.NotEqual(t, records[0].ID, records[1].ID)
		assert.True(t, base.Equal(records[0].Timestamp))
		require.Len(t, records[0].ActionPlan, 1)
		assert.Equal(t, models.KindAddOpportunityDetection, records[0].ActionPlan[0].Kind())
		require.Len(t, records[0].ExecutionResults, 1)
		assert.True(t, records[0].ExecutionResults[0].Verified)
	})
}

func TestRecentlyCompleted(t *testing.T) {
	backends(t, func(t *testing.T, open func() Store) {
		s := open()
		defer s.Close()
		ctx := context.Background()
		base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

		require.NoError(t, s.Append(ctx, record("old", models.RecordCompleted, base.Add(-24*time.Hour))))
		require.NoError(t, s.Append(ctx, record("recent", models.RecordCompleted, base.Add(-time.Hour))))
		require.NoError(t, s.Append(ctx, record("recent", models.RecordCompleted, base.Add(-2*time.Hour))))
		require.NoError(t, s.Append(ctx, record("failed", models.RecordFailed, base)))
		require.NoError(t, s.Append(ctx, record("", models.RecordCompleted, base)))

		recent, err := s.RecentlyCompleted(base.Add(-12 * time.Hour))
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.True(t, base.Add(-time.Hour).Equal(recent["recent"]), "latest completion wins")

		edge, err := s.RecentlyCompleted(base.Add(-time.Hour))
		require.NoError(t, err)
		assert.Contains(t, edge, "recent", "a record exactly at since is included")
	})
}

func TestReopenSeesPersistedRecords(t *testing.T) {
	backends(t, func(t *testing.T, open func() Store) {
		ctx := context.Background()
		s := open()
		require.NoError(t, s.Append(ctx, record("persisted", models.RecordCompleted, time.Now())))
		require.NoError(t, s.Close())

		s2 := open()
		defer s2.Close()
		records, err := s2.Records(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "persisted", records[0].InsightSummary)
	})
}

func TestSecondWriterIsVisible(t *testing.T) {
	backends(t, func(t *testing.T, open func() Store) {
		ctx := context.Background()
		reader := open()
		defer reader.Close()
		writer := open()
		defer writer.Close()

		records, err := reader.Records(ctx)
		require.NoError(t, err)
		assert.Empty(t, records)

		require.NoError(t, writer.Append(ctx, record("from writer", models.RecordCompleted, time.Now())))

		records, err = reader.Records(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)

		recent, err := reader.RecentlyCompleted(time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Contains(t, recent, "from writer")
	})
}

func TestClosedStore(t *testing.T) {
	backends(t, func(t *testing.T, open func() Store) {
		s := open()
		require.NoError(t, s.Close())

		ctx := context.Background()
		assert.ErrorIs(t, s.Append(ctx, record("x", models.RecordCompleted, time.Now())), ErrClosed)
		_, err := s.Records(ctx)
		assert.ErrorIs(t, err, ErrClosed)
		_, err = s.RecentlyCompleted(time.Now())
		assert.ErrorIs(t, err, ErrClosed)
	})
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("postgres", filepath.Join(t.TempDir(), "h"))
	assert.ErrorContains(t, err, "unknown history backend")
}
