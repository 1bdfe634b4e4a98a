package sink

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcatalog/internal/catalog"
	"eventcatalog/internal/logger"
	apperrors "eventcatalog/pkg/errors"
	"eventcatalog/pkg/retry"
)

func fastPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:     2,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	}
}

func testSnapshot(now time.Time) catalog.Snapshot {
	events := []catalog.Event{
		{Name: "Affiliate Summit West", Dates: "2026-01-26", Score: 81, Tier: 1},
	}
	return catalog.NewSnapshot(events, []string{"industry_api", "listing"}, now)
}

func TestFileSink_Write_ProducesWireSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	sink := NewFileSink(path, fastPolicy(), logger.NopLogger())
	now := time.Date(2026, 3, 14, 3, 0, 0, 0, time.UTC)

	err := sink.Write(context.Background(), testSnapshot(now))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &payload))

	assert.Equal(t, "2026-03-14T03:00:00Z", payload["lastUpdated"])

	events, ok := payload["events"].([]interface{})
	require.True(t, ok)
	require.Len(t, events, 1)

	metadata, ok := payload["metadata"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), metadata["totalEvents"])
	assert.Equal(t, []interface{}{"industry_api", "listing"}, metadata["sources"])
	assert.Equal(t, "2026-03-15T03:00:00Z", metadata["nextUpdate"])
}

func TestFileSink_Write_EmptyCatalogKeepsArrayShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	sink := NewFileSink(path, fastPolicy(), logger.NopLogger())

	err := sink.Write(context.Background(), catalog.NewSnapshot(nil, nil, time.Now()))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"events": []`)
	assert.Contains(t, string(data), `"sources": []`)
}

func TestFileSink_Write_ReplacesPreviousSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	sink := NewFileSink(path, fastPolicy(), logger.NopLogger())

	require.NoError(t, sink.Write(context.Background(), testSnapshot(time.Now())))

	updated := catalog.NewSnapshot([]catalog.Event{
		{Name: "DMEXCO", Dates: "2026-09-23"},
	}, []string{"listing"}, time.Now())
	require.NoError(t, sink.Write(context.Background(), updated))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DMEXCO")
	assert.NotContains(t, string(data), "Affiliate Summit West")
}

func TestFileSink_Write_FailureLeavesPreviousFileIntact(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	sink := NewFileSink(path, fastPolicy(), logger.NopLogger())

	require.NoError(t, sink.Write(context.Background(), testSnapshot(time.Now())))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	// Read-only directory makes the temp file creation fail.
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	err = sink.Write(context.Background(), testSnapshot(time.Now().Add(time.Hour)))
	require.Error(t, err)
	assert.True(t, apperrors.IsSnapshotWrite(err))

	require.NoError(t, os.Chmod(dir, 0o755))
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFileSink_Write_MissingDirectoryFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "catalog.json")
	sink := NewFileSink(path, fastPolicy(), logger.NopLogger())

	err := sink.Write(context.Background(), testSnapshot(time.Now()))

	require.Error(t, err)
	assert.True(t, apperrors.IsSnapshotWrite(err))
}

func TestFileSink_Write_NoStrayTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	sink := NewFileSink(path, fastPolicy(), logger.NopLogger())

	require.NoError(t, sink.Write(context.Background(), testSnapshot(time.Now())))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "catalog.json", entries[0].Name())
}
