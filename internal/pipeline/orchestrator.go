// Package pipeline sequences a full catalog run: load curated events, fetch
// and normalize source data, merge, score, and publish the snapshot.
package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"eventcatalog/internal/catalog"
	"eventcatalog/internal/fetch"
	"eventcatalog/internal/logger"
	"eventcatalog/internal/merge"
	"eventcatalog/internal/scoring"
	"eventcatalog/internal/sink"
	apperrors "eventcatalog/pkg/errors"
	"eventcatalog/pkg/logging"
	"eventcatalog/pkg/metrics"
)

const (
	statusSuccess = "success"
	statusFailure = "failure"
	statusScored  = "scored"
	statusKept    = "kept"
)

// CuratedSource yields the hand-curated event set.
type CuratedSource interface {
	Load(ctx context.Context) ([]catalog.Event, error)
}

// Normalizer converts raw source records into canonical events, dropping
// malformed records individually.
type Normalizer interface {
	Normalize(ctx context.Context, records []catalog.RawRecord) []catalog.Event
}

// Filter applies exclusion rules to fetched events.
type Filter interface {
	Apply(ctx context.Context, source string, events []catalog.Event) []catalog.Event
}

// Report summarizes one pipeline run for the operator surface.
type Report struct {
	RunID         string    `json:"runId"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`
	CuratedEvents int       `json:"curatedEvents"`
	FetchedEvents int       `json:"fetchedEvents"`
	Duplicates    int       `json:"duplicates"`
	Rejected      int       `json:"rejected"`
	Scored        int       `json:"scored"`
	TotalEvents   int       `json:"totalEvents"`
	FailedSources []string  `json:"failedSources,omitempty"`
}

// Orchestrator owns the end-to-end run. It guarantees at most one run in
// flight: an overlapping trigger is rejected, never queued behind a live
// merge against the same curated source.
type Orchestrator struct {
	curated    CuratedSource
	producers  []fetch.Producer
	normalizer Normalizer
	filter     Filter
	merger     *merge.Merger
	snapshots  sink.Sink
	feed       sink.Sink
	logger     logger.Logger
	clock      func() time.Time
	running    atomic.Bool
}

func NewOrchestrator(
	curated CuratedSource,
	producers []fetch.Producer,
	normalizer Normalizer,
	filter Filter,
	merger *merge.Merger,
	snapshots sink.Sink,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		curated:    curated,
		producers:  producers,
		normalizer: normalizer,
		filter:     filter,
		merger:     merger,
		snapshots:  snapshots,
		logger:     log,
		clock:      time.Now,
	}
}

// SetFeedSink enables the optional ICS feed export. Feed failures degrade
// to warnings; only the snapshot write can fail a run.
func (o *Orchestrator) SetFeedSink(feed sink.Sink) {
	o.feed = feed
}

// SetClock overrides the time source.
func (o *Orchestrator) SetClock(clock func() time.Time) {
	o.clock = clock
}

// Run executes one full pipeline pass. Per-source failures degrade input
// completeness and are reported in the run report; only a failed snapshot
// write (or an unreadable curated store) fails the run.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, apperrors.ErrRunInFlight
	}
	defer o.running.Store(false)

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)

	start := o.clock()
	report := &Report{
		RunID:     runID,
		StartedAt: start,
	}

	o.logger.InfowCtx(ctx, "Pipeline run starting",
		"sources", len(o.producers),
	)

	curatedEvents, err := o.curated.Load(ctx)
	if err != nil {
		return o.fail(ctx, report, err)
	}
	report.CuratedEvents = len(curatedEvents)

	fetchedEvents, failedSources := o.fetchAll(ctx)
	report.FetchedEvents = len(fetchedEvents)
	report.FailedSources = failedSources

	mergeResult := o.merger.Merge(ctx, curatedEvents, fetchedEvents)
	report.Duplicates = mergeResult.Duplicates
	report.Rejected = mergeResult.Rejected

	report.Scored = o.score(mergeResult.Events)

	snapshot := catalog.NewSnapshot(mergeResult.Events, o.sourceNames(), start)
	report.TotalEvents = snapshot.Metadata.TotalEvents

	if err := o.snapshots.Write(ctx, snapshot); err != nil {
		return o.fail(ctx, report, err)
	}

	if o.feed != nil {
		if err := o.feed.Write(ctx, snapshot); err != nil {
			o.logger.WarnwCtx(ctx, "Feed export failed",
				"error", err,
			)
		}
	}

	report.FinishedAt = o.clock()

	metrics.RunsTotal.WithLabelValues(statusSuccess).Inc()
	metrics.ObserveRunDuration(report.FinishedAt.Sub(start))
	metrics.LastRunTimestamp.Set(float64(report.FinishedAt.Unix()))
	metrics.SetCatalogSize(report.TotalEvents)

	o.logger.InfowCtx(ctx, "Pipeline run complete",
		"total_events", report.TotalEvents,
		"curated", report.CuratedEvents,
		"fetched", report.FetchedEvents,
		"duplicates", report.Duplicates,
		"rejected", report.Rejected,
		"scored", report.Scored,
		"failed_sources", report.FailedSources,
		"duration_ms", report.FinishedAt.Sub(start).Milliseconds(),
	)

	return report, nil
}

// fetchAll queries every producer concurrently. Each source writes into its
// own slot, and slots are joined in configured source order, so the merge
// input order is deterministic regardless of completion order. A failing
// source contributes nothing beyond a warning.
func (o *Orchestrator) fetchAll(ctx context.Context) ([]catalog.Event, []string) {
	perSource := make([][]catalog.Event, len(o.producers))
	failed := make([]bool, len(o.producers))

	g, gCtx := errgroup.WithContext(ctx)
	for i, producer := range o.producers {
		g.Go(func() error {
			sourceCtx := logging.WithSource(gCtx, producer.Name())
			fetchStart := time.Now()

			records, err := producer.Fetch(sourceCtx)
			metrics.ObserveFetchDuration(producer.Name(), time.Since(fetchStart))

			if err != nil {
				failed[i] = true
				metrics.FetchResultsTotal.WithLabelValues(producer.Name(), statusFailure).Inc()
				o.logger.WarnwCtx(sourceCtx, "Source unavailable, continuing without it",
					"error", err,
				)
				return nil
			}

			metrics.FetchResultsTotal.WithLabelValues(producer.Name(), statusSuccess).Inc()

			events := o.normalizer.Normalize(sourceCtx, records)
			if o.filter != nil {
				events = o.filter.Apply(sourceCtx, producer.Name(), events)
			}

			perSource[i] = events
			o.logger.InfowCtx(sourceCtx, "Source fetched",
				"raw_records", len(records),
				"events", len(events),
			)
			return nil
		})
	}
	g.Wait()

	var fetched []catalog.Event
	var failedSources []string
	for i, events := range perSource {
		fetched = append(fetched, events...)
		if failed[i] {
			failedSources = append(failedSources, o.producers[i].Name())
		}
	}
	return fetched, failedSources
}

// score recomputes score, tier and breakdown for every event that wants it,
// leaving all other fields untouched.
func (o *Orchestrator) score(events []catalog.Event) int {
	scored := 0
	for i := range events {
		if !events[i].ShouldRescore() {
			metrics.EventsScoredTotal.WithLabelValues(statusKept).Inc()
			continue
		}
		scoring.Apply(&events[i])
		metrics.EventsScoredTotal.WithLabelValues(statusScored).Inc()
		scored++
	}
	return scored
}

func (o *Orchestrator) sourceNames() []string {
	names := make([]string, 0, len(o.producers))
	for _, p := range o.producers {
		names = append(names, p.Name())
	}
	return names
}

func (o *Orchestrator) fail(ctx context.Context, report *Report, err error) (*Report, error) {
	report.FinishedAt = o.clock()
	metrics.RunsTotal.WithLabelValues(statusFailure).Inc()
	o.logger.ErrorwCtx(ctx, "Pipeline run failed",
		"error", err,
	)
	return report, err
}
