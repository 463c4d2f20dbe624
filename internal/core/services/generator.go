package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sred-drafter/internal/core/domain"
	"github.com/custodia-labs/sred-drafter/internal/core/ports/driven"
	"github.com/custodia-labs/sred-drafter/internal/logger"
	"github.com/custodia-labs/sred-drafter/internal/metrics"
	"github.com/custodia-labs/sred-drafter/internal/prompts"
)

// ExemplarsPerSection is the number of exemplars requested for every draft.
const ExemplarsPerSection = 3

const (
	notAvailable      = "N/A"
	untitledProject   = "Example project"
	noExemplars       = "No prior examples available."
	exemplarSeparator = "\n\n---\n\n"
)

// sectionPrompts selects the drafting instruction for each fixed section.
// Keys outside this table draft with the default instruction.
var sectionPrompts = map[domain.SectionKey]string{
	domain.SectionUncertainty:              driven.PromptUncertainty,
	domain.SectionSystematicInvestigation:  driven.PromptInvestigation,
	domain.SectionTechnologicalAdvancement: driven.PromptAdvancement,
}

// SectionPrompt returns the drafting prompt name for a section key.
func SectionPrompt(key domain.SectionKey) string {
	if name, ok := sectionPrompts[key]; ok {
		return name
	}
	return driven.PromptDefault
}

// GeneratorAgent drafts sections from project facts and retrieved exemplars,
// and rewrites drafts against reviewer feedback.
type GeneratorAgent struct {
	llm           driven.TextGenerator
	retriever     Retriever
	prompts       driven.PromptStore
	catalog       *domain.SectionCatalog
	failurePolicy domain.RetrievalFailurePolicy
	nResults      int
	metrics       *metrics.Recorder
}

// NewGeneratorAgent creates a generator agent.
// A nil prompt store serves the embedded defaults; a nil catalog resolves
// every section through the default label and word target.
func NewGeneratorAgent(
	llm driven.TextGenerator,
	retriever Retriever,
	promptStore driven.PromptStore,
	catalog *domain.SectionCatalog,
) *GeneratorAgent {
	if promptStore == nil {
		promptStore = prompts.Static{}
	}
	return &GeneratorAgent{
		llm:           llm,
		retriever:     retriever,
		prompts:       promptStore,
		catalog:       catalog,
		failurePolicy: domain.RetrievalFail,
		nResults:      ExemplarsPerSection,
	}
}

// SetExemplarCount sets how many exemplars are requested per draft.
// Values below one are ignored.
func (g *GeneratorAgent) SetExemplarCount(n int) {
	if n > 0 {
		g.nResults = n
	}
}

// SetFailurePolicy decides whether a retrieval failure aborts the section
// or drafts it without exemplars.
func (g *GeneratorAgent) SetFailurePolicy(p domain.RetrievalFailurePolicy) {
	if p.IsValid() {
		g.failurePolicy = p
	}
}

// SetMetrics sets the metrics recorder.
func (g *GeneratorAgent) SetMetrics(m *metrics.Recorder) {
	g.metrics = m
}

// GenerateSection drafts one section. Retrieval failures are returned as a
// *domain.SectionError at the retrieve stage unless the degrade policy is set
// and the failure came from the query itself. Empty model output is kept.
func (g *GeneratorAgent) GenerateSection(
	ctx context.Context, section domain.SectionKey, project domain.ProjectContext,
) (domain.Draft, error) {
	spec := g.catalog.Lookup(section)
	logger.Section("Draft: " + spec.Label)

	draft := domain.Draft{Section: section}

	query := RetrievalQuery(project)
	exemplars, err := g.retriever.Retrieve(
		ctx, query, section, project.TechCode, project.Industry, g.nResults,
	)
	if err != nil {
		if g.failurePolicy != domain.RetrievalDegrade || !degradable(err) {
			return draft, &domain.SectionError{Section: section, Stage: domain.StageRetrieve, Err: err}
		}
		logger.Warn("Retrieval failed for %s, drafting without exemplars: %v", section, err)
		exemplars = nil
		draft.Degraded = true
	}
	draft.Exemplars = exemplars

	system, err := g.draftingInstruction(section)
	if err != nil {
		return draft, err
	}
	user := draftingMessage(spec, project, exemplars)
	logger.Debug("Drafting with %d exemplar(s), prompt %d chars", len(exemplars), len(system)+len(user))

	text, err := g.complete(ctx, domain.StageDraft, system, user)
	if err != nil {
		return draft, err
	}
	draft.Text = text
	return draft, nil
}

// RefineSection rewrites a draft to satisfy reviewer feedback. It makes
// exactly one generation call.
func (g *GeneratorAgent) RefineSection(
	ctx context.Context, section domain.SectionKey, draft, feedback string,
) (string, error) {
	spec := g.catalog.Lookup(section)
	logger.Section("Refine: " + spec.Label)

	system, err := g.prompts.Load(driven.PromptRefiner)
	if err != nil {
		return "", fmt.Errorf("load refiner prompt: %w", err)
	}
	user := fmt.Sprintf(
		"SECTION: %s\n\nORIGINAL DRAFT:\n%s\n\nREVIEWER FEEDBACK:\n%s\n\nPlease write the final corrected version:",
		spec.Label, draft, feedback,
	)
	return g.complete(ctx, domain.StageRefine, system, user)
}

func (g *GeneratorAgent) draftingInstruction(section domain.SectionKey) (string, error) {
	name := SectionPrompt(section)
	instruction, err := g.prompts.Load(name)
	if err != nil {
		return "", fmt.Errorf("load %s prompt: %w", name, err)
	}
	formatting, err := g.prompts.Load(driven.PromptFormatting)
	if err != nil {
		return "", fmt.Errorf("load formatting prompt: %w", err)
	}
	return instruction + "\n\n" + formatting, nil
}

func (g *GeneratorAgent) complete(ctx context.Context, stage domain.Stage, system, user string) (string, error) {
	if g.llm == nil {
		return "", domain.ErrLLMUnavailable
	}
	start := time.Now()
	text, err := g.llm.Complete(ctx, system, user)
	g.metrics.Generation(string(stage), time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("%s generation: %w", stage, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		logger.Warn("%s generation returned no text", stage)
	}
	return text, nil
}

// degradable reports whether a retrieval error may be absorbed by drafting
// without exemplars. Only query failures qualify; a missing collection or
// embedder and a cancelled run always abort.
func degradable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, domain.ErrCollectionNotFound),
		errors.Is(err, domain.ErrEmbeddingUnavailable):
		return false
	}
	return true
}

// RetrievalQuery composes the text embedded for exemplar search: one labelled
// line per project fact in a fixed order, with N/A for absent facts.
func RetrievalQuery(project domain.ProjectContext) string {
	return strings.Join([]string{
		"Industry: " + orNA(project.Industry),
		"Tech code: " + orNA(project.TechCode),
		"Company summary: " + orNA(project.CompanySummary),
		"Description: " + orNA(project.ProjectDescription),
	}, "\n")
}

// FormatExemplars renders passages as titled blocks separated by a rule.
func FormatExemplars(passages []domain.ExemplarPassage) string {
	if len(passages) == 0 {
		return noExemplars
	}
	blocks := make([]string, 0, len(passages))
	for _, p := range passages {
		title := p.Metadata.ProjectTitle
		if title == "" {
			title = untitledProject
		}
		blocks = append(blocks, fmt.Sprintf("Project: %s\n\n%s", title, p.Text))
	}
	return strings.Join(blocks, exemplarSeparator)
}

func draftingMessage(spec domain.SectionSpec, project domain.ProjectContext, exemplars []domain.ExemplarPassage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SECTION: %s\n", spec.Label)
	fmt.Fprintf(&b, "CONTEXT: Industry=%s, Tech Code=%s\n", orNA(project.Industry), orNA(project.TechCode))
	fmt.Fprintf(&b, "DESCRIPTION: %s\n", orNA(project.ProjectDescription))
	fmt.Fprintf(&b, "COMPANY SUMMARY: %s\n\n", orNA(project.CompanySummary))
	fmt.Fprintf(&b, "EXAMPLES:\n%s\n\n", FormatExemplars(exemplars))
	fmt.Fprintf(&b, "Write a %d-%d word draft.", spec.Words.Min, spec.Words.Max)
	return b.String()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}
