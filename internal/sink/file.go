package sink

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"eventcatalog/internal/catalog"
	"eventcatalog/internal/logger"
	apperrors "eventcatalog/pkg/errors"
	"eventcatalog/pkg/metrics"
	"eventcatalog/pkg/retry"
)

// FileSink writes the snapshot as indented JSON. The file is staged in the
// target directory and renamed into place so a reader never observes a
// partial snapshot, and a failed write leaves the previous file untouched.
type FileSink struct {
	path   string
	policy retry.Policy
	logger logger.Logger
}

func NewFileSink(path string, policy retry.Policy, log logger.Logger) *FileSink {
	return &FileSink{
		path:   path,
		policy: policy,
		logger: log,
	}
}

func (s *FileSink) Write(ctx context.Context, snapshot catalog.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		// Marshal failure is not transient; retrying would only repeat it.
		return apperrors.Wrap(err, apperrors.ErrSnapshotWrite).AsFatal()
	}

	start := time.Now()

	onRetry := func(attempt int, err error, nextDelay time.Duration) {
		metrics.RetryAttemptsTotal.WithLabelValues("snapshot_write").Inc()
		s.logger.WarnwCtx(ctx, "Snapshot write failed, retrying",
			"path", s.path,
			"attempt", attempt,
			"next_delay_ms", nextDelay.Milliseconds(),
			"error", err,
		)
	}

	err = retry.RetryWithCallback(ctx, s.policy, func() error {
		return s.writeAtomic(data)
	}, onRetry)

	metrics.ObserveSnapshotWriteDuration(time.Since(start))

	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrSnapshotWrite).WithDetail("path", s.path)
	}

	s.logger.InfowCtx(ctx, "Snapshot written",
		"path", s.path,
		"events", snapshot.Metadata.TotalEvents,
	)
	return nil
}

func (s *FileSink) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (s *FileSink) Path() string {
	return s.path
}
