package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/petal-labs/appcore/bus"
	"github.com/petal-labs/appcore/event"
)

// NewEventsCmd creates the "events" command group.
func NewEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the persisted event journal",
	}
	addConfigFlag(cmd)

	cmd.AddCommand(newEventsListCmd())
	return cmd
}

func newEventsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journalled events",
		Args:  cobra.NoArgs,
		RunE:  runEventsList,
	}
	cmd.Flags().Uint64("after", 0, "Only list events with a sequence number greater than this")
	cmd.Flags().Int("limit", 50, "Maximum number of events to list")
	cmd.Flags().String("format", "text", "Output format: text | json")
	return cmd
}

func runEventsList(cmd *cobra.Command, _ []string) error {
	after, _ := cmd.Flags().GetUint64("after")
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Journal.Backend != "sqlite" {
		return exitError(exitConfig, "events list requires a sqlite journal (configured backend: %q)", cfg.Journal.Backend)
	}

	journal, err := bus.NewSQLiteJournal(bus.SQLiteJournalConfig{DSN: cfg.Journal.DSN})
	if err != nil {
		return exitError(exitStore, "opening journal: %v", err)
	}
	defer journal.Close()

	records, err := journal.List(ctx, after, limit)
	if err != nil {
		return exitError(exitStore, "listing events: %v", err)
	}

	switch format {
	case "json":
		printRecordsJSON(out, records)
	case "text":
		printRecordsText(out, records)
	default:
		return exitError(exitInputParse, "unsupported format %q", format)
	}
	return nil
}

func printRecordsText(w io.Writer, records []event.Record) {
	for _, rec := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			rec.Seq, rec.Time.UTC().Format(time.RFC3339), rec.Kind, compactPayload(rec.Payload))
	}
	fmt.Fprintf(w, "%d %s\n", len(records), pluralize("event", len(records)))
}

func printRecordsJSON(w io.Writer, records []event.Record) {
	// Output an empty array rather than null when there are no records.
	if records == nil {
		records = []event.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(records)
}

func compactPayload(payload map[string]any) string {
	if len(payload) == 0 {
		return "{}"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// pluralize returns the singular or plural form of a word based on count.
func pluralize(word string, count int) string {
	if count == 1 {
		return word
	}
	return word + "s"
}
