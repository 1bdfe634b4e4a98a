// Package normalize converts raw source records into canonical events.
// Sources disagree on field names and types, so lookups accept the common
// aliases and coerce loosely typed values; a record that still lacks its
// identity fields afterwards is dropped on its own, never the whole batch.
package normalize

import (
	"context"
	"strconv"
	"strings"

	"eventcatalog/internal/catalog"
	"eventcatalog/internal/logger"
	"eventcatalog/pkg/metrics"
)

const (
	statusNormalized = "normalized"
	statusDropped    = "dropped"
)

type Normalizer struct {
	logger logger.Logger
}

func NewNormalizer(log logger.Logger) *Normalizer {
	return &Normalizer{logger: log}
}

// Normalize maps each raw record into the canonical schema. Malformed
// records are dropped with a warning; the returned slice preserves the
// input order of the survivors.
func (n *Normalizer) Normalize(ctx context.Context, records []catalog.RawRecord) []catalog.Event {
	events := make([]catalog.Event, 0, len(records))

	for _, rec := range records {
		ev, ok := n.normalizeRecord(rec)
		if !ok {
			metrics.RecordsNormalizedTotal.WithLabelValues(rec.Source, statusDropped).Inc()
			n.logger.WarnwCtx(ctx, "Malformed record dropped",
				"source", rec.Source,
				"payload_name", stringField(rec.Payload, "name"),
			)
			continue
		}
		metrics.RecordsNormalizedTotal.WithLabelValues(rec.Source, statusNormalized).Inc()
		events = append(events, ev)
	}

	return events
}

func (n *Normalizer) normalizeRecord(rec catalog.RawRecord) (catalog.Event, bool) {
	if rec.Payload == nil {
		return catalog.Event{}, false
	}

	ev := catalog.Event{
		Name:           stringField(rec.Payload, "name"),
		Dates:          stringField(rec.Payload, "dates", "date"),
		Audiences:      stringSliceField(rec.Payload, "audiences", "audience"),
		AttendeeCount:  intField(rec.Payload, "attendeeCount", "attendees"),
		CompetitorList: stringSliceField(rec.Payload, "competitorList", "competitors"),
		CommercialTier: intField(rec.Payload, "commercialTier", "tier"),
		Prestige:       floatField(rec.Payload, "prestige"),
		AutoUpdate:     boolField(rec.Payload, "autoUpdate"),
	}

	if err := ev.Validate(); err != nil {
		return catalog.Event{}, false
	}
	return ev, true
}

func stringField(payload map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := payload[key].(string); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// intField coerces JSON numbers, numeric strings ("12000"), and formatted
// counts ("12,000") into an int. Unparseable values collapse to zero.
func intField(payload map[string]interface{}, keys ...string) int {
	for _, key := range keys {
		switch v := payload[key].(type) {
		case float64:
			return int(v)
		case int:
			return v
		case string:
			cleaned := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
			if cleaned == "" {
				continue
			}
			if parsed, err := strconv.Atoi(cleaned); err == nil {
				return parsed
			}
		}
	}
	return 0
}

func floatField(payload map[string]interface{}, keys ...string) float64 {
	for _, key := range keys {
		switch v := payload[key].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case string:
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return parsed
			}
		}
	}
	return 0
}

// stringSliceField accepts both a JSON array and a comma-separated string.
func stringSliceField(payload map[string]interface{}, keys ...string) []string {
	for _, key := range keys {
		switch v := payload[key].(type) {
		case []interface{}:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					out = append(out, strings.TrimSpace(s))
				}
			}
			if len(out) > 0 {
				return out
			}
		case []string:
			if len(v) > 0 {
				return v
			}
		case string:
			parts := strings.Split(v, ",")
			out := make([]string, 0, len(parts))
			for _, p := range parts {
				if trimmed := strings.TrimSpace(p); trimmed != "" {
					out = append(out, trimmed)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

func boolField(payload map[string]interface{}, keys ...string) *bool {
	for _, key := range keys {
		if v, ok := payload[key].(bool); ok {
			b := v
			return &b
		}
	}
	return nil
}
