package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

type Checker interface {
	Check(ctx context.Context) error
	Name() string
}

type Health struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

type CheckResult struct {
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type CheckerRegistry struct {
	checkers []Checker
}

func NewCheckerRegistry() *CheckerRegistry {
	return &CheckerRegistry{
		checkers: make([]Checker, 0),
	}
}

func (r *CheckerRegistry) Register(checker Checker) {
	r.checkers = append(r.checkers, checker)
}

func (r *CheckerRegistry) Check(ctx context.Context) Health {
	results := make(map[string]CheckResult)
	allHealthy := true

	for _, checker := range r.checkers {
		err := checker.Check(ctx)
		result := CheckResult{
			Timestamp: time.Now(),
		}

		if err != nil {
			result.Status = StatusUnhealthy
			result.Message = err.Error()
			allHealthy = false
		} else {
			result.Status = StatusHealthy
		}

		results[checker.Name()] = result
	}

	overallStatus := StatusHealthy
	if !allHealthy {
		overallStatus = StatusUnhealthy
	}

	return Health{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Checks:    results,
	}
}

// CuratedStoreChecker verifies the curated-event file is readable when it
// exists. A missing file is healthy: the pipeline treats it as an empty
// catalog.
type CuratedStoreChecker struct {
	path string
}

func NewCuratedStoreChecker(path string) *CuratedStoreChecker {
	return &CuratedStoreChecker{path: path}
}

func (c *CuratedStoreChecker) Name() string {
	return "curated_store"
}

func (c *CuratedStoreChecker) Check(ctx context.Context) error {
	f, err := os.Open(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("curated store open failed: %w", err)
	}
	return f.Close()
}

// SnapshotDirChecker verifies the snapshot output directory is writable.
type SnapshotDirChecker struct {
	dir string
}

func NewSnapshotDirChecker(outputPath string) *SnapshotDirChecker {
	return &SnapshotDirChecker{dir: filepath.Dir(outputPath)}
}

func (c *SnapshotDirChecker) Name() string {
	return "snapshot_dir"
}

func (c *SnapshotDirChecker) Check(ctx context.Context) error {
	probe, err := os.CreateTemp(c.dir, ".healthcheck-*")
	if err != nil {
		return fmt.Errorf("snapshot dir not writable: %w", err)
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}
