package sink

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcatalog/internal/catalog"
	"eventcatalog/internal/logger"
)

func TestFeedWriter_Write_SerializesEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.ics")
	writer := NewFeedWriter(path, logger.NopLogger())

	snapshot := catalog.NewSnapshot([]catalog.Event{
		{Name: "Affiliate Summit West", Dates: "2026-01-26", Tier: 1, Audiences: []string{"Affiliates"}},
		{Name: "Shoptalk", Dates: "2026-05", Tier: 2},
	}, []string{"listing"}, time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC))

	require.NoError(t, writer.Write(context.Background(), snapshot))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	feed := string(data)

	assert.Contains(t, feed, "BEGIN:VCALENDAR")
	assert.Contains(t, feed, "METHOD:PUBLISH")
	assert.Contains(t, feed, "SUMMARY:Affiliate Summit West")
	assert.Contains(t, feed, "SUMMARY:Shoptalk")
	assert.Contains(t, feed, "CATEGORIES:Tier 1")
	assert.Contains(t, feed, "Audiences: Affiliates")
	assert.Contains(t, feed, "affiliate-summit-west-2026-01-26@eventcatalog")
}

func TestFeedWriter_Write_OmitsUnparseableDates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.ics")
	writer := NewFeedWriter(path, logger.NopLogger())

	snapshot := catalog.NewSnapshot([]catalog.Event{
		{Name: "Kept", Dates: "2026-09-23"},
		{Name: "Omitted", Dates: "Sometime next fall"},
	}, nil, time.Now())

	require.NoError(t, writer.Write(context.Background(), snapshot))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "SUMMARY:Kept")
	assert.NotContains(t, string(data), "SUMMARY:Omitted")
}

func TestParseFeedDates(t *testing.T) {
	start, end, ok := parseFeedDates("2026-01-26")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 1, 26, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 1, 27, 0, 0, 0, 0, time.UTC), end)

	start, end, ok = parseFeedDates("2026-05")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), end)

	_, _, ok = parseFeedDates("TBD")
	assert.False(t, ok)
}
