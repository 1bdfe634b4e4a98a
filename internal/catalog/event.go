package catalog

import (
	apperrors "eventcatalog/pkg/errors"
)

// CommercialTier values. Zero means the classification has not been set.
const (
	CommercialTierUnset = 0
	CommercialTier1     = 1
	CommercialTier2     = 2
	CommercialTier3     = 3
)

// Event is the canonical record every source is normalized into before it
// reaches the pipeline. Name and Dates together form the business identity;
// everything else may differ between sources describing the same event.
type Event struct {
	Name           string         `json:"name"`
	Dates          string         `json:"dates"`
	Audiences      []string       `json:"audiences,omitempty"`
	AttendeeCount  int            `json:"attendeeCount,omitempty"`
	CompetitorList []string       `json:"competitorList,omitempty"`
	CommercialTier int            `json:"commercialTier,omitempty"`
	Prestige       float64        `json:"prestige,omitempty"`
	AutoUpdate     *bool          `json:"autoUpdate,omitempty"`
	Score          int            `json:"score,omitempty"`
	Tier           int            `json:"tier,omitempty"`
	ScoreBreakdown map[string]int `json:"scoreBreakdown,omitempty"`
}

// Identity is the sole deduplication key.
type Identity struct {
	Name  string
	Dates string
}

func (e *Event) Identity() Identity {
	return Identity{Name: e.Name, Dates: e.Dates}
}

// Validate rejects records that would corrupt deduplication if they reached
// the merge step.
func (e *Event) Validate() error {
	if e.Name == "" {
		return apperrors.ErrInvariant.WithDetail("message", "event name is empty")
	}
	if e.Dates == "" {
		return apperrors.ErrInvariant.WithDetail("message", "event dates are empty").WithDetail("name", e.Name)
	}
	if e.AttendeeCount < 0 {
		return apperrors.ErrInvariant.WithDetail("message", "attendee count is negative").WithDetail("name", e.Name)
	}
	return nil
}

// Scored reports whether the event carries a computed score.
func (e *Event) Scored() bool {
	return e.Score != 0
}

// ShouldRescore implements the score-only-when-needed policy: an event is
// rescored when it has no score yet, or when autoUpdate is true or absent
// (absent defaults to true).
func (e *Event) ShouldRescore() bool {
	if !e.Scored() {
		return true
	}
	return e.AutoUpdate == nil || *e.AutoUpdate
}

// RawRecord is a source record before normalization. The payload is opaque
// to the core: only the normalizer for the originating source interprets it.
type RawRecord struct {
	Source  string                 `json:"source"`
	Payload map[string]interface{} `json:"payload"`
}
