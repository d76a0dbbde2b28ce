package bus

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/petal-labs/appcore/event"
)

// JournalSubscriber drains a Subscription into a Journal, assigning
// monotonic sequence numbers across runs of the process.
type JournalSubscriber struct {
	journal Journal
	logger  *slog.Logger
	seq     atomic.Uint64
	seeded  atomic.Bool
}

// NewJournalSubscriber creates a new JournalSubscriber.
func NewJournalSubscriber(journal Journal, logger *slog.Logger) *JournalSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &JournalSubscriber{
		journal: journal,
		logger:  logger,
	}
}

// Run consumes the subscription until its channel closes or ctx is
// cancelled, appending every received event to the journal. Sequence
// numbering continues from the journal's latest stored Seq.
func (s *JournalSubscriber) Run(ctx context.Context, sub Subscription) {
	if s.seeded.CompareAndSwap(false, true) {
		latest, err := s.journal.LatestSeq(ctx)
		if err != nil {
			s.logger.Error("failed to read journal latest seq", "error", err)
		} else {
			s.seq.Store(latest)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.Events():
			if !ok {
				return
			}
			s.handle(ctx, e)
		}
	}
}

// handle persists a single event to the journal.
func (s *JournalSubscriber) handle(ctx context.Context, e event.Event) {
	rec, err := event.NewRecord(s.seq.Add(1), e)
	if err != nil {
		s.logger.Error("failed to capture event record",
			"kind", e.EventKind(),
			"error", err,
		)
		return
	}

	if err := s.journal.Append(ctx, rec); err != nil {
		s.logger.Error("failed to journal event",
			"kind", rec.Kind,
			"seq", rec.Seq,
			"error", err,
		)
	}
}
