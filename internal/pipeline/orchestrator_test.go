package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcatalog/internal/catalog"
	"eventcatalog/internal/fetch"
	"eventcatalog/internal/logger"
	"eventcatalog/internal/merge"
	"eventcatalog/internal/normalize"
	apperrors "eventcatalog/pkg/errors"
)

type fakeCurated struct {
	events []catalog.Event
	err    error
}

func (f *fakeCurated) Load(ctx context.Context) ([]catalog.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

type fakeProducer struct {
	name      string
	records   []catalog.RawRecord
	err       error
	started   chan struct{}
	startOnce sync.Once
	release   chan struct{}
}

func (f *fakeProducer) Name() string {
	return f.name
}

func (f *fakeProducer) Fetch(ctx context.Context) ([]catalog.RawRecord, error) {
	if f.started != nil {
		f.startOnce.Do(func() { close(f.started) })
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

type captureSink struct {
	snapshots []catalog.Snapshot
	err       error
}

func (s *captureSink) Write(ctx context.Context, snapshot catalog.Snapshot) error {
	if s.err != nil {
		return s.err
	}
	s.snapshots = append(s.snapshots, snapshot)
	return nil
}

func rawEvent(name, dates string) catalog.RawRecord {
	return catalog.RawRecord{
		Source: "test",
		Payload: map[string]interface{}{
			"name":  name,
			"dates": dates,
		},
	}
}

func newTestOrchestrator(curated *fakeCurated, producers []fetch.Producer, snapshots *captureSink) *Orchestrator {
	log := logger.NopLogger()
	return NewOrchestrator(
		curated,
		producers,
		normalize.NewNormalizer(log),
		nil,
		merge.NewMerger(log),
		snapshots,
		log,
	)
}

func TestOrchestrator_Run_FullPass(t *testing.T) {
	curated := &fakeCurated{events: []catalog.Event{
		{Name: "Affiliate Summit West", Dates: "2026-01-26", Audiences: []string{"Affiliates"}},
	}}
	producers := []fetch.Producer{
		&fakeProducer{name: "industry_api", records: []catalog.RawRecord{
			rawEvent("Affiliate Summit West", "2026-01-26"),
			rawEvent("DMEXCO", "2026-09-23"),
		}},
	}
	snapshots := &captureSink{}

	o := newTestOrchestrator(curated, producers, snapshots)
	now := time.Date(2026, 3, 14, 3, 0, 0, 0, time.UTC)
	o.SetClock(func() time.Time { return now })

	report, err := o.Run(context.Background())

	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 1, report.CuratedEvents)
	assert.Equal(t, 2, report.FetchedEvents)
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, 2, report.TotalEvents)
	assert.Equal(t, 2, report.Scored)
	assert.Empty(t, report.FailedSources)

	require.Len(t, snapshots.snapshots, 1)
	snapshot := snapshots.snapshots[0]
	assert.Equal(t, now, snapshot.LastUpdated)
	assert.Equal(t, now.Add(catalog.UpdateInterval), snapshot.Metadata.NextUpdate)
	assert.Equal(t, []string{"industry_api"}, snapshot.Metadata.Sources)

	require.Len(t, snapshot.Events, 2)
	assert.Equal(t, "Affiliate Summit West", snapshot.Events[0].Name)
	assert.NotZero(t, snapshot.Events[0].Score)
	assert.NotZero(t, snapshot.Events[0].Tier)
	assert.Len(t, snapshot.Events[0].ScoreBreakdown, 5)
}

func TestOrchestrator_Run_AutoUpdateDisabledKeepsScore(t *testing.T) {
	autoUpdate := false
	curated := &fakeCurated{events: []catalog.Event{
		{
			Name:       "Pinned Conference",
			Dates:      "2026-06-01",
			Score:      70,
			Tier:       2,
			AutoUpdate: &autoUpdate,
		},
		{
			Name:  "Fresh Conference",
			Dates: "2026-07-01",
		},
	}}
	snapshots := &captureSink{}

	o := newTestOrchestrator(curated, nil, snapshots)
	report, err := o.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Scored)

	require.Len(t, snapshots.snapshots, 1)
	events := snapshots.snapshots[0].Events
	require.Len(t, events, 2)
	assert.Equal(t, 70, events[0].Score)
	assert.Equal(t, 2, events[0].Tier)
	assert.Nil(t, events[0].ScoreBreakdown)
	assert.Equal(t, 48, events[1].Score)
}

func TestOrchestrator_Run_RescoresWhenAutoUpdateAbsent(t *testing.T) {
	curated := &fakeCurated{events: []catalog.Event{
		{Name: "Stale Score", Dates: "2026-06-01", Score: 99, Tier: 1},
	}}
	snapshots := &captureSink{}

	o := newTestOrchestrator(curated, nil, snapshots)
	report, err := o.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Scored)
	assert.Equal(t, 48, snapshots.snapshots[0].Events[0].Score)
	assert.Equal(t, 3, snapshots.snapshots[0].Events[0].Tier)
}

func TestOrchestrator_Run_FailedSourceDegrades(t *testing.T) {
	curated := &fakeCurated{}
	producers := []fetch.Producer{
		&fakeProducer{name: "down", err: apperrors.ErrSourceUnavailable},
		&fakeProducer{name: "up", records: []catalog.RawRecord{
			rawEvent("Survivor Expo", "2026-04-01"),
		}},
	}
	snapshots := &captureSink{}

	o := newTestOrchestrator(curated, producers, snapshots)
	report, err := o.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"down"}, report.FailedSources)
	assert.Equal(t, 1, report.TotalEvents)

	require.Len(t, snapshots.snapshots, 1)
	assert.Equal(t, []string{"down", "up"}, snapshots.snapshots[0].Metadata.Sources)
}

func TestOrchestrator_Run_DeterministicSourceOrder(t *testing.T) {
	curated := &fakeCurated{}
	slow := &fakeProducer{
		name:    "slow",
		records: []catalog.RawRecord{rawEvent("First In Config", "2026-01-01")},
		release: make(chan struct{}),
	}
	producers := []fetch.Producer{
		slow,
		&fakeProducer{name: "fast", records: []catalog.RawRecord{
			rawEvent("Second In Config", "2026-02-01"),
		}},
	}
	snapshots := &captureSink{}

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(slow.release)
	}()

	o := newTestOrchestrator(curated, producers, snapshots)
	_, err := o.Run(context.Background())
	require.NoError(t, err)

	events := snapshots.snapshots[0].Events
	require.Len(t, events, 2)
	assert.Equal(t, "First In Config", events[0].Name)
	assert.Equal(t, "Second In Config", events[1].Name)
}

func TestOrchestrator_Run_SnapshotWriteFailureFailsRun(t *testing.T) {
	curated := &fakeCurated{events: []catalog.Event{
		{Name: "Doomed", Dates: "2026-01-01"},
	}}
	snapshots := &captureSink{err: apperrors.ErrSnapshotWrite}

	o := newTestOrchestrator(curated, nil, snapshots)
	report, err := o.Run(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsSnapshotWrite(err))
	require.NotNil(t, report)
	assert.Equal(t, 1, report.TotalEvents)
}

func TestOrchestrator_Run_CuratedLoadFailureFailsRun(t *testing.T) {
	curated := &fakeCurated{err: apperrors.ErrMalformedRecord}
	snapshots := &captureSink{}

	o := newTestOrchestrator(curated, nil, snapshots)
	_, err := o.Run(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsMalformedRecord(err))
	assert.Empty(t, snapshots.snapshots)
}

func TestOrchestrator_Run_RejectsOverlappingRun(t *testing.T) {
	blocking := &fakeProducer{
		name:    "slow",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	snapshots := &captureSink{}

	o := newTestOrchestrator(&fakeCurated{}, []fetch.Producer{blocking}, snapshots)

	firstDone := make(chan error, 1)
	go func() {
		_, err := o.Run(context.Background())
		firstDone <- err
	}()

	<-blocking.started
	_, err := o.Run(context.Background())
	assert.True(t, apperrors.IsRunInFlight(err))

	close(blocking.release)
	require.NoError(t, <-firstDone)

	// The guard resets once the first run finishes.
	_, err = o.Run(context.Background())
	require.NoError(t, err)
}

func TestOrchestrator_Run_FeedFailureDoesNotFailRun(t *testing.T) {
	curated := &fakeCurated{events: []catalog.Event{
		{Name: "Feedless", Dates: "2026-01-01"},
	}}
	snapshots := &captureSink{}

	o := newTestOrchestrator(curated, nil, snapshots)
	o.SetFeedSink(&captureSink{err: apperrors.ErrSnapshotWrite})

	report, err := o.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalEvents)
	assert.Len(t, snapshots.snapshots, 1)
}
