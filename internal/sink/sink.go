// Package sink persists the catalog snapshot for downstream consumers.
package sink

import (
	"context"

	"eventcatalog/internal/catalog"
)

// Sink durably stores a catalog snapshot. Write must be atomic: either the
// full new snapshot becomes visible or the previous one remains.
type Sink interface {
	Write(ctx context.Context, snapshot catalog.Snapshot) error
}
