// Package merge reconciles the curated event set with freshly fetched
// events. Identity (name + dates) is the sole deduplication key and curated
// events always win: a fetched record colliding with an existing identity is
// dropped without touching the existing entry.
package merge

import (
	"context"
	"time"

	"eventcatalog/internal/catalog"
	"eventcatalog/internal/logger"
	"eventcatalog/pkg/metrics"
)

const (
	statusCurated   = "curated"
	statusAppended  = "appended"
	statusDuplicate = "duplicate"
	statusRejected  = "rejected"
)

// Result summarizes one merge pass.
type Result struct {
	Events     []catalog.Event
	Duplicates int
	Rejected   int
}

type Merger struct {
	logger logger.Logger
}

func NewMerger(log logger.Logger) *Merger {
	return &Merger{logger: log}
}

// Merge returns curated events first, in their original order and
// unmodified, then each fetched event whose identity is not already
// present. Records missing identity fields are rejected before they can
// corrupt the index. The identity lookup is O(1) per fetched event.
func (m *Merger) Merge(ctx context.Context, curated, fetched []catalog.Event) Result {
	start := time.Now()

	merged := make([]catalog.Event, 0, len(curated)+len(fetched))
	index := make(map[catalog.Identity]struct{}, len(curated)+len(fetched))
	result := Result{}

	for _, ev := range curated {
		if err := ev.Validate(); err != nil {
			result.Rejected++
			metrics.MergeEventsTotal.WithLabelValues(statusRejected).Inc()
			m.logger.ErrorwCtx(ctx, "Curated event rejected before merge",
				"name", ev.Name,
				"error", err,
			)
			continue
		}

		merged = append(merged, ev)
		index[ev.Identity()] = struct{}{}
		metrics.MergeEventsTotal.WithLabelValues(statusCurated).Inc()
	}

	for _, ev := range fetched {
		if err := ev.Validate(); err != nil {
			result.Rejected++
			metrics.MergeEventsTotal.WithLabelValues(statusRejected).Inc()
			m.logger.WarnwCtx(ctx, "Fetched event rejected before merge",
				"name", ev.Name,
				"error", err,
			)
			continue
		}

		if _, exists := index[ev.Identity()]; exists {
			result.Duplicates++
			metrics.MergeEventsTotal.WithLabelValues(statusDuplicate).Inc()
			m.logger.DebugwCtx(ctx, "Duplicate fetched event dropped",
				"name", ev.Name,
				"dates", ev.Dates,
			)
			continue
		}

		merged = append(merged, ev)
		index[ev.Identity()] = struct{}{}
		metrics.MergeEventsTotal.WithLabelValues(statusAppended).Inc()
	}

	result.Events = merged

	m.logger.DebugwCtx(ctx, "Merge complete",
		"curated", len(curated),
		"fetched", len(fetched),
		"merged", len(merged),
		"duplicates", result.Duplicates,
		"rejected", result.Rejected,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result
}
