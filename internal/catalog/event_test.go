package catalog

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{"valid", Event{Name: "A", Dates: "2026-01-01"}, false},
		{"missing name", Event{Dates: "2026-01-01"}, true},
		{"missing dates", Event{Name: "A"}, true},
		{"negative attendees", Event{Name: "A", Dates: "2026-01-01", AttendeeCount: -1}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.event.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEvent_Identity(t *testing.T) {
	a := Event{Name: "DMEXCO", Dates: "2026-09-23", AttendeeCount: 40000}
	b := Event{Name: "DMEXCO", Dates: "2026-09-23", AttendeeCount: 99}
	c := Event{Name: "DMEXCO", Dates: "2027-09-22"}

	assert.Equal(t, a.Identity(), b.Identity())
	assert.NotEqual(t, a.Identity(), c.Identity())
}

func TestEvent_ShouldRescore(t *testing.T) {
	yes := true
	no := false

	tests := []struct {
		name  string
		event Event
		want  bool
	}{
		{"unscored", Event{Name: "A", Dates: "d"}, true},
		{"scored, autoUpdate absent", Event{Name: "A", Dates: "d", Score: 70}, true},
		{"scored, autoUpdate true", Event{Name: "A", Dates: "d", Score: 70, AutoUpdate: &yes}, true},
		{"scored, autoUpdate false", Event{Name: "A", Dates: "d", Score: 70, AutoUpdate: &no}, false},
		{"unscored, autoUpdate false", Event{Name: "A", Dates: "d", AutoUpdate: &no}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.event.ShouldRescore())
		})
	}
}

func TestEvent_JSONOmitsUnsetOptionalFields(t *testing.T) {
	data, err := json.Marshal(Event{Name: "Bare", Dates: "2026-01-01"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"name": "Bare", "dates": "2026-01-01"}`, string(data))
}

func TestNewSnapshot(t *testing.T) {
	now := time.Date(2026, 3, 14, 3, 0, 0, 0, time.UTC)
	events := []Event{{Name: "A", Dates: "2026-01-01"}}

	snapshot := NewSnapshot(events, []string{"api"}, now)

	assert.Equal(t, now, snapshot.LastUpdated)
	assert.Equal(t, 1, snapshot.Metadata.TotalEvents)
	assert.Equal(t, now.Add(24*time.Hour), snapshot.Metadata.NextUpdate)
}

func TestNewSnapshot_NilSlicesBecomeEmpty(t *testing.T) {
	snapshot := NewSnapshot(nil, nil, time.Now())

	assert.NotNil(t, snapshot.Events)
	assert.NotNil(t, snapshot.Metadata.Sources)
	assert.Zero(t, snapshot.Metadata.TotalEvents)
}
