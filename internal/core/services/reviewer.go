package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sred-drafter/internal/core/domain"
	"github.com/custodia-labs/sred-drafter/internal/core/ports/driven"
	"github.com/custodia-labs/sred-drafter/internal/logger"
	"github.com/custodia-labs/sred-drafter/internal/metrics"
	"github.com/custodia-labs/sred-drafter/internal/prompts"
)

// ReviewerAgent critiques drafts. It classifies the raw response once, so
// callers only ever see a tagged outcome.
type ReviewerAgent struct {
	llm     driven.TextGenerator
	prompts driven.PromptStore
	catalog *domain.SectionCatalog
	metrics *metrics.Recorder
}

// NewReviewerAgent creates a reviewer agent.
func NewReviewerAgent(
	llm driven.TextGenerator, promptStore driven.PromptStore, catalog *domain.SectionCatalog,
) *ReviewerAgent {
	if promptStore == nil {
		promptStore = prompts.Static{}
	}
	return &ReviewerAgent{llm: llm, prompts: promptStore, catalog: catalog}
}

// SetMetrics sets the metrics recorder.
func (r *ReviewerAgent) SetMetrics(m *metrics.Recorder) {
	r.metrics = m
}

// Review asks for a critique of draft. Empty or ambiguous responses are
// classified as needing revision.
func (r *ReviewerAgent) Review(
	ctx context.Context, section domain.SectionKey, draft string,
) (domain.ReviewOutcome, error) {
	spec := r.catalog.Lookup(section)
	logger.Section("Review: " + spec.Label)

	if r.llm == nil {
		return domain.ReviewOutcome{}, domain.ErrLLMUnavailable
	}
	system, err := r.prompts.Load(driven.PromptReviewer)
	if err != nil {
		return domain.ReviewOutcome{}, fmt.Errorf("load reviewer prompt: %w", err)
	}
	user := fmt.Sprintf("SECTION: %s\n\nDRAFT TEXT:\n%s", spec.Label, draft)

	start := time.Now()
	feedback, err := r.llm.Complete(ctx, system, user)
	r.metrics.Generation(string(domain.StageReview), time.Since(start), err)
	if err != nil {
		return domain.ReviewOutcome{}, fmt.Errorf("review generation: %w", err)
	}

	outcome := domain.ClassifyFeedback(feedback)
	logger.Debug("Review verdict for %s: %s", section, outcome.Verdict)
	return outcome, nil
}
