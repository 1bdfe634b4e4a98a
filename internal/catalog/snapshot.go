package catalog

import (
	"time"
)

// UpdateInterval is how far ahead the advertised next update lies.
const UpdateInterval = 24 * time.Hour

// Snapshot is the persisted catalog artifact. The field layout is a
// published contract with downstream consumers and must not change shape.
type Snapshot struct {
	LastUpdated time.Time `json:"lastUpdated"`
	Events      []Event   `json:"events"`
	Metadata    Metadata  `json:"metadata"`
}

type Metadata struct {
	TotalEvents int       `json:"totalEvents"`
	Sources     []string  `json:"sources"`
	NextUpdate  time.Time `json:"nextUpdate"`
}

// NewSnapshot builds a snapshot for the given run time. The events slice is
// taken as-is: order is part of the contract and already deterministic.
func NewSnapshot(events []Event, sources []string, now time.Time) Snapshot {
	if events == nil {
		events = []Event{}
	}
	if sources == nil {
		sources = []string{}
	}
	return Snapshot{
		LastUpdated: now,
		Events:      events,
		Metadata: Metadata{
			TotalEvents: len(events),
			Sources:     sources,
			NextUpdate:  now.Add(UpdateInterval),
		},
	}
}
