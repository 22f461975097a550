// Package remote defines the outbound port for the remote document store.
package remote

import (
	"context"

	"bizbook/internal/core"
)

// DocumentStore reads and overwrites the single remote JSON document holding
// the full application snapshot. Replace is a whole-document overwrite with
// no version check: the last writer fully replaces the document.
type DocumentStore interface {
	Fetch(ctx context.Context) (core.Snapshot, error)
	Replace(ctx context.Context, snap core.Snapshot) error
}
