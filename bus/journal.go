package bus

import (
	"context"

	"github.com/petal-labs/appcore/event"
)

// Journal persists event records for later inspection. Durability is
// whatever the backing store provides; the bus itself makes no guarantee.
type Journal interface {
	// Append stores a record.
	Append(ctx context.Context, rec event.Record) error

	// List returns stored records in sequence order.
	// afterSeq: return records with Seq > afterSeq (0 means all)
	// limit: max records to return (0 means no limit)
	List(ctx context.Context, afterSeq uint64, limit int) ([]event.Record, error)

	// LatestSeq returns the highest stored Seq (0 if the journal is empty).
	LatestSeq(ctx context.Context) (uint64, error)
}
