// Package cli provides the cobra command tree for the sred binary.
// It is a driving adapter: every command calls a driving port and renders
// the result.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sred-drafter/internal/core/ports/driven"
	"github.com/custodia-labs/sred-drafter/internal/core/ports/driving"
	"github.com/custodia-labs/sred-drafter/internal/logger"
	"github.com/custodia-labs/sred-drafter/internal/metrics"
)

// version is set at build time via -ldflags.
var version = "dev"

// Store backends selectable with --store.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// skipServices marks commands that run without the service graph.
const skipServices = "sred/skip-services"

// Options are the global flags a Builder needs to assemble services.
type Options struct {
	// Verbose enables debug logging.
	Verbose bool

	// Store selects the exemplar store backend.
	Store string

	// Seed is ingested into the memory store before the command runs.
	Seed string

	// Parallel overrides the pipeline's parallel setting when true.
	Parallel bool
}

// Services is the set of ports the commands call.
type Services struct {
	Report   driving.ReportService
	Catalog  driving.SectionCatalogProvider
	Ingest   driving.IngestService
	Settings driving.SettingsService
	Metrics  *metrics.Recorder

	// Prompts serves instruction templates; PromptDir is watched for edits.
	Prompts   driven.PromptStore
	PromptDir string

	// Warnings are shown once before the command runs.
	Warnings []string
}

// Builder assembles services for the given options. The returned cleanup
// function releases stores and AI clients.
type Builder func(opts Options) (*Services, func(), error)

var (
	services *Services
	builder  Builder
	cleanup  func()
	opts     = Options{Store: StoreSQLite}
)

var rootCmd = &cobra.Command{
	Use:   "sred",
	Short: "Draft SR&ED technical narratives from project facts",
	Long: `sred drafts the three technical narrative sections of an SR&ED claim
(technological uncertainty, systematic investigation, technological
advancement) from a few project facts.

Each section is drafted from similar approved reports, reviewed against
the program's eligibility criteria, and rewritten once if the review
asks for changes.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepareServices,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		releaseServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "print pipeline progress to stderr")
	rootCmd.PersistentFlags().StringVar(&opts.Store, "store", StoreSQLite, "exemplar store: sqlite or memory")
	rootCmd.PersistentFlags().StringVar(&opts.Seed, "seed", "", "reports to ingest into the memory store at startup")
}

// SetServices injects a prebuilt service set. Used by tests and embedders.
func SetServices(s *Services) {
	services = s
}

// SetBuilder sets the function that assembles services on first use.
func SetBuilder(b Builder) {
	builder = b
}

// Execute runs the root command.
func Execute() error {
	defer releaseServices()
	return rootCmd.Execute()
}

func prepareServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(opts.Verbose)

	if cmd.Annotations[skipServices] == "true" {
		return nil
	}
	if opts.Store != StoreSQLite && opts.Store != StoreMemory {
		return fmt.Errorf("unknown store %q: use %s or %s", opts.Store, StoreSQLite, StoreMemory)
	}
	if opts.Seed != "" && opts.Store != StoreMemory {
		return errors.New("--seed requires --store memory")
	}
	if services != nil || builder == nil {
		return nil
	}

	built, release, err := builder(opts)
	if err != nil {
		return err
	}
	services, cleanup = built, release
	for _, w := range built.Warnings {
		cmd.PrintErrf("Warning: %s\n", w)
	}
	return nil
}

// releaseServices runs the builder's cleanup once. Services injected with
// SetServices are left alone.
func releaseServices() {
	if cleanup == nil {
		return
	}
	cleanup()
	cleanup = nil
	services = nil
}

// needServices returns the services or an error naming the missing port.
func needServices(port string, ok func(*Services) bool) (*Services, error) {
	if services == nil || !ok(services) {
		return nil, fmt.Errorf("%s not configured", port)
	}
	return services, nil
}
