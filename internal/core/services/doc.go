// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The report pipeline is split into three agents composed by the
// Orchestrator: RetrievalAgent, GeneratorAgent and ReviewerAgent.
// Services are pure Go with no CGO.
package services
