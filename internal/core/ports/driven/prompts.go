package driven

// PromptStore provides access to system instruction templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return the embedded
	// default or an error when no default exists.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is used when prompts have been edited on disk.
	Reload()
}

// Well-known prompt names. Every report section has exactly one drafting
// instruction; reviewer and refiner instructions are shared.
const (
	// PromptUncertainty drafts the technological uncertainty section.
	PromptUncertainty = "uncertainty"

	// PromptInvestigation drafts the systematic investigation section.
	PromptInvestigation = "investigation"

	// PromptAdvancement drafts the technological advancement section.
	PromptAdvancement = "advancement"

	// PromptDefault drafts sections outside the catalog.
	PromptDefault = "default"

	// PromptFormatting is appended to every drafting instruction.
	PromptFormatting = "formatting"

	// PromptReviewer critiques a draft and answers with the acceptance
	// sentinel or a list of required fixes.
	PromptReviewer = "reviewer"

	// PromptRefiner rewrites a draft to address reviewer feedback.
	PromptRefiner = "refiner"
)
