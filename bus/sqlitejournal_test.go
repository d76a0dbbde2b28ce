package bus

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/petal-labs/appcore/event"
)

func newTestSQLiteJournal(t *testing.T, cfg SQLiteJournalConfig) *SQLiteJournal {
	t.Helper()
	if cfg.DSN == "" {
		cfg.DSN = filepath.Join(t.TempDir(), "journal.db")
	}
	j, err := NewSQLiteJournal(cfg)
	if err != nil {
		t.Fatalf("NewSQLiteJournal: %v", err)
	}
	t.Cleanup(func() {
		if err := j.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return j
}

func TestSQLiteJournal_AppendAndList(t *testing.T) {
	j := newTestSQLiteJournal(t, SQLiteJournalConfig{})
	appendRecords(t, j, 3)

	records, err := j.List(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	first := records[0]
	if first.Seq != 1 {
		t.Errorf("got seq %d, want 1", first.Seq)
	}
	if first.Kind != event.KindNavigation {
		t.Errorf("got kind %v, want %v", first.Kind, event.KindNavigation)
	}
	if got, ok := first.Payload["Route"].(string); !ok || got != "detail" {
		t.Errorf("payload Route = %v, want %q", first.Payload["Route"], "detail")
	}
}

func TestSQLiteJournal_ListAfterSeqAndLimit(t *testing.T) {
	j := newTestSQLiteJournal(t, SQLiteJournalConfig{})
	appendRecords(t, j, 10)

	records, err := j.List(context.Background(), 5, 3)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	for i, want := range []uint64{6, 7, 8} {
		if records[i].Seq != want {
			t.Errorf("record %d: got seq %d, want %d", i, records[i].Seq, want)
		}
	}
}

func TestSQLiteJournal_LatestSeq(t *testing.T) {
	j := newTestSQLiteJournal(t, SQLiteJournalConfig{})

	seq, err := j.LatestSeq(context.Background())
	if err != nil {
		t.Fatalf("LatestSeq: %v", err)
	}
	if seq != 0 {
		t.Errorf("empty journal latest seq = %d, want 0", seq)
	}

	appendRecords(t, j, 7)

	seq, err = j.LatestSeq(context.Background())
	if err != nil {
		t.Fatalf("LatestSeq: %v", err)
	}
	if seq != 7 {
		t.Errorf("latest seq = %d, want 7", seq)
	}
}

func TestSQLiteJournal_PruneByCount(t *testing.T) {
	j := newTestSQLiteJournal(t, SQLiteJournalConfig{
		RetentionCount: 4,
		PruneInterval:  time.Hour,
	})
	appendRecords(t, j, 10)

	if err := j.Prune(context.Background()); err != nil {
		t.Fatalf("Prune: %v", err)
	}

	records, err := j.List(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records after prune, want 4", len(records))
	}
	if records[0].Seq != 7 {
		t.Errorf("oldest surviving seq = %d, want 7", records[0].Seq)
	}
}

func TestSQLiteJournal_PruneByAge(t *testing.T) {
	j := newTestSQLiteJournal(t, SQLiteJournalConfig{
		RetentionAge:  time.Hour,
		PruneInterval: time.Hour,
	})

	old, err := event.NewRecord(1, event.Toast{Message: "old"})
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	old.Time = time.Now().Add(-2 * time.Hour)
	if err := j.Append(context.Background(), old); err != nil {
		t.Fatalf("Append: %v", err)
	}

	fresh, err := event.NewRecord(2, event.Toast{Message: "fresh"})
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	if err := j.Append(context.Background(), fresh); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := j.Prune(context.Background()); err != nil {
		t.Fatalf("Prune: %v", err)
	}

	records, err := j.List(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records after prune, want 1", len(records))
	}
	if records[0].Seq != 2 {
		t.Errorf("surviving seq = %d, want 2", records[0].Seq)
	}
}

func TestSQLiteJournal_EmptyPayloadRoundTrip(t *testing.T) {
	j := newTestSQLiteJournal(t, SQLiteJournalConfig{})

	rec := event.Record{Seq: 1, Kind: "custom", Time: time.Now()}
	if err := j.Append(context.Background(), rec); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records, err := j.List(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Payload == nil {
		t.Error("payload should round-trip to an empty map, not nil")
	}
}
