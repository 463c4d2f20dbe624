// Package domain defines the core entities of the report drafter.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SectionKey / SectionCatalog: the fixed report sections and their targets
//   - ExemplarPassage: an approved section returned by similarity search
//   - RetrievalFilter: the conjunctive metadata predicate used for retrieval
//   - ProjectContext: caller-supplied facts for one report
//   - Draft / ReviewOutcome / SectionResult / Report: pipeline values
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
