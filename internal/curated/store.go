// Package curated loads the hand-edited event list. These records are
// ground truth: the pipeline never drops or overwrites them.
package curated

import (
	"context"
	"encoding/json"
	"os"

	"eventcatalog/internal/catalog"
	"eventcatalog/internal/logger"
	apperrors "eventcatalog/pkg/errors"
)

type Store struct {
	path   string
	logger logger.Logger
}

func NewStore(path string, log logger.Logger) *Store {
	return &Store{path: path, logger: log}
}

// Load returns the curated events. A missing file is an empty catalog, not
// an error. A file that exists but cannot be parsed is an error: ground
// truth must never be silently ignored, so the run aborts before it could
// publish a snapshot without the curated set.
func (s *Store) Load(ctx context.Context) ([]catalog.Event, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.InfowCtx(ctx, "Curated event file not found, starting from empty set",
				"path", s.path,
			)
			return []catalog.Event{}, nil
		}
		return nil, apperrors.Wrap(err, apperrors.ErrSourceUnavailable).
			WithDetail("message", "curated event file unreadable").
			WithDetail("path", s.path)
	}

	var events []catalog.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrMalformedRecord).
			WithDetail("message", "curated event file is not valid JSON").
			WithDetail("path", s.path)
	}

	s.logger.InfowCtx(ctx, "Loaded curated events",
		"path", s.path,
		"count", len(events),
	)
	return events, nil
}

func (s *Store) Path() string {
	return s.path
}
