package merge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcatalog/internal/catalog"
	"eventcatalog/internal/logger"
)

func newTestMerger() *Merger {
	return NewMerger(logger.NopLogger())
}

func event(name, dates string) catalog.Event {
	return catalog.Event{Name: name, Dates: dates}
}

func TestMerger_Merge_CuratedWins(t *testing.T) {
	curated := []catalog.Event{
		{Name: "Affiliate Summit West", Dates: "2026-01-26", AttendeeCount: 6000, Score: 75},
	}
	fetched := []catalog.Event{
		{Name: "Affiliate Summit West", Dates: "2026-01-26", AttendeeCount: 9999},
	}

	result := newTestMerger().Merge(context.Background(), curated, fetched)

	require.Len(t, result.Events, 1)
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, 6000, result.Events[0].AttendeeCount)
	assert.Equal(t, 75, result.Events[0].Score)
}

func TestMerger_Merge_AppendsNewFetched(t *testing.T) {
	curated := []catalog.Event{event("A", "2026-01-01")}
	fetched := []catalog.Event{
		event("B", "2026-02-01"),
		event("C", "2026-03-01"),
	}

	result := newTestMerger().Merge(context.Background(), curated, fetched)

	require.Len(t, result.Events, 3)
	assert.Zero(t, result.Duplicates)
	assert.Zero(t, result.Rejected)
}

func TestMerger_Merge_SameNameDifferentDatesKept(t *testing.T) {
	curated := []catalog.Event{event("DMEXCO", "2026-09-23")}
	fetched := []catalog.Event{event("DMEXCO", "2027-09-22")}

	result := newTestMerger().Merge(context.Background(), curated, fetched)

	assert.Len(t, result.Events, 2)
	assert.Zero(t, result.Duplicates)
}

func TestMerger_Merge_StableOrder(t *testing.T) {
	curated := []catalog.Event{
		event("c1", "2026-01-01"),
		event("c2", "2026-01-02"),
	}
	fetched := []catalog.Event{
		event("f1", "2026-02-01"),
		event("c1", "2026-01-01"),
		event("f2", "2026-02-02"),
	}

	result := newTestMerger().Merge(context.Background(), curated, fetched)

	names := make([]string, 0, len(result.Events))
	for _, ev := range result.Events {
		names = append(names, ev.Name)
	}
	assert.Equal(t, []string{"c1", "c2", "f1", "f2"}, names)
}

func TestMerger_Merge_RejectsMissingIdentity(t *testing.T) {
	fetched := []catalog.Event{
		event("", "2026-01-01"),
		event("valid", ""),
		event("valid", "2026-01-01"),
	}

	result := newTestMerger().Merge(context.Background(), nil, fetched)

	require.Len(t, result.Events, 1)
	assert.Equal(t, 2, result.Rejected)
	assert.Equal(t, "valid", result.Events[0].Name)
}

func TestMerger_Merge_RejectsNegativeAttendees(t *testing.T) {
	fetched := []catalog.Event{
		{Name: "broken", Dates: "2026-01-01", AttendeeCount: -5},
	}

	result := newTestMerger().Merge(context.Background(), nil, fetched)

	assert.Empty(t, result.Events)
	assert.Equal(t, 1, result.Rejected)
}

func TestMerger_Merge_DuplicatesWithinFetched(t *testing.T) {
	fetched := []catalog.Event{
		event("X", "2026-05-01"),
		event("X", "2026-05-01"),
	}

	result := newTestMerger().Merge(context.Background(), nil, fetched)

	assert.Len(t, result.Events, 1)
	assert.Equal(t, 1, result.Duplicates)
}

func TestMerger_Merge_Idempotent(t *testing.T) {
	curated := []catalog.Event{event("A", "2026-01-01")}
	fetched := []catalog.Event{event("B", "2026-02-01")}

	first := newTestMerger().Merge(context.Background(), curated, fetched)
	second := newTestMerger().Merge(context.Background(), first.Events, fetched)

	assert.Equal(t, first.Events, second.Events)
	assert.Equal(t, 1, second.Duplicates)
}

func TestMerger_Merge_EmptyInputs(t *testing.T) {
	result := newTestMerger().Merge(context.Background(), nil, nil)

	assert.NotNil(t, result.Events)
	assert.Empty(t, result.Events)
}
