package metrics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"budget-meal-planner/internal/database"
	"budget-meal-planner/internal/llm"
)

func newTestStore(t *testing.T, now time.Time) *Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "metrics.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s := NewStore(db.SQL)
	s.now = func() time.Time { return now }
	return s
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)

	require.NoError(t, s.RecordCall(ctx, llm.CallMeta{
		Operation: "plan",
		Usage:     llm.Usage{Model: "m", PromptTokens: 100, CompletionTokens: 40},
		Latency:   1500 * time.Millisecond,
	}))
	require.NoError(t, s.RecordCall(ctx, llm.CallMeta{Operation: "replace", Failed: true}))
	// no usage and no failure is not worth a row
	require.NoError(t, s.RecordCall(ctx, llm.CallMeta{Operation: "recipe"}))
	require.NoError(t, s.Record(ctx, ExecutionMetric{
		Operation: "recipe", PromptTokens: 10, CompletionTokens: 5,
		Timestamp: now.AddDate(0, 0, -2),
	}))
	require.NoError(t, s.Record(ctx, ExecutionMetric{
		Operation: "recipe", PromptTokens: 1, Timestamp: now.AddDate(0, 0, -40),
	}))

	usage, err := s.GetDailyUsage(ctx, 7)
	require.NoError(t, err)
	require.Len(t, usage, 2)
	assert.Equal(t, DailyUsage{Date: "2026-03-10", TotalPrompt: 100, TotalCompletion: 40, TotalExecution: 2, Failures: 1}, usage[0])
	assert.Equal(t, "2026-03-08", usage[1].Date)

	removed, err := s.Cleanup(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestMapCall(t *testing.T) {
	at := time.Now()
	m := MapCall(llm.CallMeta{Operation: "scan", Usage: llm.Usage{Model: "vision", PromptTokens: 3}, Latency: 2 * time.Second}, at)
	assert.Equal(t, ExecutionMetric{Operation: "scan", Model: "vision", PromptTokens: 3, LatencyMS: 2000, Timestamp: at}, m)
}
