package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sred-drafter/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <dir|report.md|records.jsonl>",
	Short: "Rebuild the exemplar collection from approved reports",
	Long: `Read approved reports and replace the exemplar collection with their
narrative sections.

A directory is walked for Markdown reports; a .jsonl file is read as one
section record per line. The existing collection is only replaced once every
record has been read and embedded.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	svc, err := needServices("ingest service", func(s *Services) bool { return s.Ingest != nil })
	if err != nil {
		return err
	}

	summary, err := svc.Ingest.Ingest(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	printIngestSummary(cmd, summary)
	return nil
}

func printIngestSummary(cmd *cobra.Command, summary *domain.IngestSummary) {
	cmd.Printf("Collection %q rebuilt: %d record(s) from %d report(s)\n",
		summary.Collection, summary.Records, summary.Reports)

	keys := make([]string, 0, len(summary.BySection))
	for k := range summary.BySection {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		cmd.Printf("  %-28s %d\n", k, summary.BySection[domain.SectionKey(k)])
	}

	if len(summary.Skipped) > 0 {
		cmd.Printf("Skipped %d file(s) with no narrative sections:\n", len(summary.Skipped))
		for _, path := range summary.Skipped {
			cmd.Printf("  %s\n", path)
		}
	}
}
