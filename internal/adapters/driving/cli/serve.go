package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sred-drafter/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sred-drafter/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/sred-drafter/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the JSON HTTP API.

Endpoints:
  GET  /api/health     liveness check
  POST /api/generate   draft a report from project facts
  GET  /api/sections   section catalog
  GET  /metrics        prometheus metrics

Prompt files under ~/.sred/prompts are reloaded when edited.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8000", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	svc, err := needServices("report service", func(s *Services) bool { return s.Report != nil })
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	watchPrompts(ctx, svc)

	server := httpapi.NewServer(svc.Report, svc.Catalog, svc.Metrics)
	cmd.Printf("HTTP API listening on %s\n", serveAddr)
	return server.Run(ctx, serveAddr)
}

// watchPrompts reloads the prompt store on edits until ctx ends.
// Failure to watch is logged and otherwise ignored.
func watchPrompts(ctx context.Context, svc *Services) {
	if svc.Prompts == nil || svc.PromptDir == "" {
		return
	}
	w, err := file.NewWatcher(svc.PromptDir, svc.Prompts, file.DefaultDebounce)
	if err != nil {
		logger.Warn("Prompt hot reload disabled: %v", err)
		return
	}
	go func() {
		w.Run(ctx)
		w.Close() //nolint:errcheck // shutdown path
	}()
	logger.Info("Watching %s for prompt edits", svc.PromptDir)
}
