package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sred-drafter/internal/core/domain"
	"github.com/custodia-labs/sred-drafter/internal/core/ports/driving"
	"github.com/custodia-labs/sred-drafter/internal/logger"
	"github.com/custodia-labs/sred-drafter/internal/metrics"
)

// Ensure Orchestrator implements the driving ports.
var (
	_ driving.ReportService          = (*Orchestrator)(nil)
	_ driving.SectionCatalogProvider = (*Orchestrator)(nil)
)

// Orchestrator runs draft, review and optional refine for every report
// section and assembles the result. A report is all-or-nothing.
type Orchestrator struct {
	generator *GeneratorAgent
	reviewer  *ReviewerAgent
	catalog   *domain.SectionCatalog
	settings  domain.PipelineSettings
	metrics   *metrics.Recorder
	now       func() time.Time
}

// NewOrchestrator creates an orchestrator. MaxReviewRounds below one is
// treated as one.
func NewOrchestrator(
	generator *GeneratorAgent,
	reviewer *ReviewerAgent,
	catalog *domain.SectionCatalog,
	settings domain.PipelineSettings,
) *Orchestrator {
	if settings.MaxReviewRounds < 1 {
		settings.MaxReviewRounds = domain.DefaultMaxReviewRounds
	}
	return &Orchestrator{
		generator: generator,
		reviewer:  reviewer,
		catalog:   catalog,
		settings:  settings,
		now:       time.Now,
	}
}

// SetMetrics sets the metrics recorder.
func (o *Orchestrator) SetMetrics(m *metrics.Recorder) {
	o.metrics = m
}

// Catalog returns the section catalog in use.
func (o *Orchestrator) Catalog() *domain.SectionCatalog {
	return o.catalog
}

// GenerateReport drafts every fixed section. Input validation belongs to the
// caller. Any section failure is returned as a *domain.SectionError and no
// partial report is produced.
func (o *Orchestrator) GenerateReport(
	ctx context.Context, project domain.ProjectContext,
) (*domain.Report, error) {
	logger.Section("Report Generation")
	logger.Debug("Industry=%q tech_code=%q parallel=%t rounds=%d",
		project.Industry, project.TechCode, o.settings.Parallel, o.settings.MaxReviewRounds)

	keys := domain.ReportSections()
	results := make([]domain.SectionResult, len(keys))

	var err error
	if o.settings.Parallel {
		err = o.runParallel(ctx, keys, project, results)
	} else {
		err = o.runSequential(ctx, keys, project, results)
	}
	if err != nil {
		o.metrics.Report("error")
		logger.Error("report generation failed: %v", err)
		return nil, err
	}

	report := &domain.Report{
		ID:        uuid.NewString(),
		Project:   project,
		Sections:  make(map[domain.SectionKey]string, len(keys)),
		Results:   make(map[domain.SectionKey]domain.SectionResult, len(keys)),
		CreatedAt: o.now(),
	}
	for _, res := range results {
		report.Sections[res.Section] = res.Final
		report.Results[res.Section] = res
	}
	o.metrics.Report("ok")
	logger.Info("Report %s complete", report.ID)
	return report, nil
}

func (o *Orchestrator) runSequential(
	ctx context.Context, keys []domain.SectionKey, project domain.ProjectContext, results []domain.SectionResult,
) error {
	for i, key := range keys {
		res, err := o.runSection(ctx, key, project)
		if err != nil {
			return err
		}
		results[i] = res
	}
	return nil
}

// runParallel fans sections out without a shared cancellation context, so a
// failing section never interrupts its siblings. The first error in section
// order is returned.
func (o *Orchestrator) runParallel(
	ctx context.Context, keys []domain.SectionKey, project domain.ProjectContext, results []domain.SectionResult,
) error {
	errs := make([]error, len(keys))
	var g errgroup.Group
	for i, key := range keys {
		g.Go(func() error {
			results[i], errs[i] = o.runSection(ctx, key, project)
			return errs[i]
		})
	}
	if g.Wait() == nil {
		return nil
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// runSection walks one section through its state machine:
// pending -> drafted -> reviewed -> accepted | refined.
func (o *Orchestrator) runSection(
	ctx context.Context, key domain.SectionKey, project domain.ProjectContext,
) (domain.SectionResult, error) {
	if o.settings.SectionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.settings.SectionTimeout)
		defer cancel()
	}

	start := o.now()
	result := domain.SectionResult{Section: key, State: domain.StatePending}

	draft, err := o.generator.GenerateSection(ctx, key, project)
	if err != nil {
		return result, sectionError(key, domain.StageDraft, err)
	}
	result.Draft = draft
	result.State = domain.StateDrafted
	current := draft.Text

	for round := 1; ; round++ {
		outcome, err := o.reviewer.Review(ctx, key, current)
		if err != nil {
			return result, sectionError(key, domain.StageReview, err)
		}
		result.Reviews = append(result.Reviews, outcome)
		result.State = domain.StateReviewed

		if outcome.Accepted() {
			result.State = domain.StateAccepted
			break
		}

		refined, err := o.generator.RefineSection(ctx, key, current, outcome.Feedback)
		if err != nil {
			return result, sectionError(key, domain.StageRefine, err)
		}
		current = refined
		result.Refinements++
		result.State = domain.StateRefined

		if round >= o.settings.MaxReviewRounds {
			break
		}
	}

	result.Final = current
	result.Duration = o.now().Sub(start)
	logger.Debug("Section %s %s after %d refinement(s)", key, result.State, result.Refinements)
	o.metrics.SectionDone(string(key), string(result.State), result.Duration)
	return result, nil
}

// sectionError wraps err with the section and stage unless it already
// carries them.
func sectionError(key domain.SectionKey, stage domain.Stage, err error) error {
	var se *domain.SectionError
	if errors.As(err, &se) {
		return err
	}
	return &domain.SectionError{Section: key, Stage: stage, Err: err}
}
