package sink

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"eventcatalog/internal/catalog"
	"eventcatalog/internal/logger"
)

// Date layouts accepted by the feed. Catalog dates are freeform strings, so
// only events whose dates parse make it into the calendar; the JSON
// snapshot remains the complete record either way.
var feedDateLayouts = []string{"2006-01-02", "2006-01"}

// FeedWriter emits the catalog as an iCalendar feed for the calendar UI.
type FeedWriter struct {
	path   string
	logger logger.Logger
}

func NewFeedWriter(path string, log logger.Logger) *FeedWriter {
	return &FeedWriter{path: path, logger: log}
}

func (w *FeedWriter) Write(ctx context.Context, snapshot catalog.Snapshot) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//eventcatalog//industry event catalog//EN")

	included := 0
	for _, ev := range snapshot.Events {
		start, end, ok := parseFeedDates(ev.Dates)
		if !ok {
			w.logger.DebugwCtx(ctx, "Event dates not calendar-parseable, omitted from feed",
				"name", ev.Name,
				"dates", ev.Dates,
			)
			continue
		}

		vevent := cal.AddEvent(feedUID(ev))
		vevent.SetDtStampTime(snapshot.LastUpdated)
		vevent.SetAllDayStartAt(start)
		vevent.SetAllDayEndAt(end)
		vevent.SetSummary(ev.Name)
		if ev.Tier != 0 {
			vevent.SetProperty(ical.ComponentPropertyCategories, fmt.Sprintf("Tier %d", ev.Tier))
		}
		if len(ev.Audiences) > 0 {
			vevent.SetDescription("Audiences: " + strings.Join(ev.Audiences, ", "))
		}
		included++
	}

	if err := os.WriteFile(w.path, []byte(cal.Serialize()), 0o644); err != nil {
		return fmt.Errorf("failed to write ICS feed %s: %w", w.path, err)
	}

	w.logger.InfowCtx(ctx, "ICS feed written",
		"path", w.path,
		"events", included,
		"omitted", len(snapshot.Events)-included,
	)
	return nil
}

func parseFeedDates(dates string) (start, end time.Time, ok bool) {
	value := strings.TrimSpace(dates)

	for _, layout := range feedDateLayouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		if layout == "2006-01" {
			// Month precision: span the whole month.
			return t, t.AddDate(0, 1, 0), true
		}
		return t, t.AddDate(0, 0, 1), true
	}

	return time.Time{}, time.Time{}, false
}

func feedUID(ev catalog.Event) string {
	slug := strings.ToLower(ev.Name + "-" + ev.Dates)
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, slug)
	return slug + "@eventcatalog"
}
