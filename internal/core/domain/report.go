package domain

import (
	"fmt"
	"strings"
	"time"
)

// AcceptanceSentinel is the literal marker a reviewer returns for a draft
// that needs no revision.
const AcceptanceSentinel = "APPROVED"

// Draft is generated text for one section, pending review.
type Draft struct {
	// Section is the section the draft was written for.
	Section SectionKey

	// Text is the generated body, trimmed.
	Text string

	// Exemplars are the passages that were shown to the generator.
	Exemplars []ExemplarPassage

	// Degraded is true when retrieval failed and the draft was written without exemplars.
	Degraded bool
}

// Verdict is the reviewer's binary classification of a draft.
type Verdict string

// Review verdicts.
const (
	VerdictAccepted      Verdict = "accepted"
	VerdictNeedsRevision Verdict = "needs_revision"
)

// ReviewOutcome is the reviewer result, classified once at the boundary so
// downstream logic never re-parses raw text.
type ReviewOutcome struct {
	// Verdict is Accepted or NeedsRevision.
	Verdict Verdict

	// Feedback is the raw reviewer response. For NeedsRevision it holds the required fixes.
	Feedback string
}

// ClassifyFeedback turns raw reviewer text into an outcome. Any occurrence of
// the acceptance sentinel accepts; everything else, including empty or
// malformed text, needs revision.
func ClassifyFeedback(feedback string) ReviewOutcome {
	if strings.Contains(feedback, AcceptanceSentinel) {
		return ReviewOutcome{Verdict: VerdictAccepted, Feedback: feedback}
	}
	return ReviewOutcome{Verdict: VerdictNeedsRevision, Feedback: feedback}
}

// Accepted reports whether the draft passed review.
func (o ReviewOutcome) Accepted() bool {
	return o.Verdict == VerdictAccepted
}

// SectionState is a node in the per-section pipeline.
type SectionState string

// Per-section pipeline states. Accepted and Refined are terminal.
const (
	StatePending  SectionState = "pending"
	StateDrafted  SectionState = "drafted"
	StateReviewed SectionState = "reviewed"
	StateAccepted SectionState = "accepted"
	StateRefined  SectionState = "refined"
)

// IsTerminal reports whether no further transitions are possible.
func (s SectionState) IsTerminal() bool {
	return s == StateAccepted || s == StateRefined
}

// Stage names the external call a section pipeline was making.
type Stage string

// Pipeline stages.
const (
	StageRetrieve Stage = "retrieve"
	StageDraft    Stage = "draft"
	StageReview   Stage = "review"
	StageRefine   Stage = "refine"
)

// SectionResult records how a section's final text was produced.
type SectionResult struct {
	// Section is the section key.
	Section SectionKey

	// State is the terminal state reached.
	State SectionState

	// Draft is the first generated draft.
	Draft Draft

	// Reviews holds every review outcome in order.
	Reviews []ReviewOutcome

	// Refinements counts refine calls made.
	Refinements int

	// Final is the text stored in the report.
	Final string

	// Duration is the wall time spent on the section.
	Duration time.Duration
}

// Report is the assembled multi-section output.
type Report struct {
	// ID uniquely identifies this generation run.
	ID string

	// Project is the context the report was generated for.
	Project ProjectContext

	// Sections maps every fixed section key to its final text.
	Sections map[SectionKey]string

	// Results holds per-section diagnostics.
	Results map[SectionKey]SectionResult

	// CreatedAt is when generation completed.
	CreatedAt time.Time
}

// SectionTexts returns the sections keyed by their string names, as rendered
// by the request layers.
func (r *Report) SectionTexts() map[string]string {
	out := make(map[string]string, len(r.Sections))
	for key, text := range r.Sections {
		out[string(key)] = text
	}
	return out
}

// SectionError wraps a failure inside one section's pipeline.
type SectionError struct {
	Section SectionKey
	Stage   Stage
	Err     error
}

// Error implements error.
func (e *SectionError) Error() string {
	return fmt.Sprintf("section %s: %s: %v", e.Section, e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *SectionError) Unwrap() error {
	return e.Err
}
