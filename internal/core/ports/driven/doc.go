// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - ExemplarStore: filtered similarity search over approved sections (read side)
//   - ExemplarWriter: collection rebuild, used only by ingestion
//   - EmbeddingService: text to vector, deterministic
//   - TextGenerator: system + user instruction to text
//   - PromptStore: system instruction templates
//   - ReportParser: source report to section records
//   - ConfigStore: application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
