package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sred-drafter/internal/core/domain"
)

var (
	generateIndustry       string
	generateTechCode       string
	generateDescription    string
	generateCompanySummary string
	generateJSON           bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Draft a complete report",
	Long: `Draft, review and refine all three report sections for one project.

Output is JSON when --json is given or stdout is not a terminal, and
labelled plain text otherwise. The report is all-or-nothing: if any
section fails, nothing is printed and the failing section is reported.`,
	Example: `  sred generate --industry "Advanced Manufacturing" --tech-code 01.01 \
    --description "Closed-loop control of a novel extrusion process"`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateIndustry, "industry", "", "project industry (required)")
	generateCmd.Flags().StringVar(&generateTechCode, "tech-code", "", "technology classification code, e.g. 01.01")
	generateCmd.Flags().StringVar(&generateDescription, "description", "", "brief project description")
	generateCmd.Flags().StringVar(&generateCompanySummary, "company-summary", "", "what the claimant does")
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "output the report as JSON")
	generateCmd.Flags().BoolVar(&opts.Parallel, "parallel", false, "draft the sections concurrently")
	rootCmd.AddCommand(generateCmd)
}

// generateOutput is the JSON shape written by generate.
type generateOutput struct {
	ReportID string            `json:"report_id"`
	Sections map[string]string `json:"sections"`
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	project := domain.ProjectContext{
		Industry:           generateIndustry,
		TechCode:           generateTechCode,
		ProjectDescription: generateDescription,
		CompanySummary:     generateCompanySummary,
	}.Trimmed()
	if err := project.Validate(); err != nil {
		return err
	}

	svc, err := needServices("report service", func(s *Services) bool { return s.Report != nil })
	if err != nil {
		return err
	}

	report, err := svc.Report.GenerateReport(cmd.Context(), project)
	if err != nil {
		var sectionErr *domain.SectionError
		if errors.As(err, &sectionErr) {
			return fmt.Errorf("report generation failed in %s (%s): %w",
				sectionErr.Section, sectionErr.Stage, sectionErr.Err)
		}
		return fmt.Errorf("report generation failed: %w", err)
	}

	if generateJSON || !isTerminal(cmd) {
		return outputReportJSON(cmd, report)
	}
	outputReportText(cmd, report, catalogFor(svc))
	return nil
}

func outputReportJSON(cmd *cobra.Command, report *domain.Report) error {
	data, err := json.MarshalIndent(generateOutput{
		ReportID: report.ID,
		Sections: report.SectionTexts(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func outputReportText(cmd *cobra.Command, report *domain.Report, catalog *domain.SectionCatalog) {
	out := cmd.OutOrStdout()
	for i, spec := range catalog.Specs() {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, spec.Label)
		fmt.Fprintln(out, strings.Repeat("=", len(spec.Label)))
		fmt.Fprintln(out, report.Sections[spec.Key])
	}
}

func catalogFor(s *Services) *domain.SectionCatalog {
	if s.Catalog != nil {
		if c := s.Catalog.Catalog(); c != nil {
			return c
		}
	}
	return domain.DefaultSectionCatalog()
}

// isTerminal reports whether the command writes to an interactive terminal.
func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
