package mcp

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sred-drafter/internal/core/domain"
)

// mockReportService is a mock implementation of driving.ReportService.
type mockReportService struct {
	report *domain.Report
	err    error
	got    []domain.ProjectContext
}

func (m *mockReportService) GenerateReport(_ context.Context, project domain.ProjectContext) (*domain.Report, error) {
	m.got = append(m.got, project)
	return m.report, m.err
}

// mockCatalogProvider is a mock implementation of driving.SectionCatalogProvider.
type mockCatalogProvider struct {
	catalog *domain.SectionCatalog
}

func (m *mockCatalogProvider) Catalog() *domain.SectionCatalog {
	return m.catalog
}

// mockPromptStore is a mock implementation of driven.PromptStore.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "", fmt.Errorf("unknown prompt %q", name)
}

func (m *mockPromptStore) Reload() {}

func threeSectionReport() *domain.Report {
	return &domain.Report{
		ID: "rep-1",
		Sections: map[domain.SectionKey]string{
			domain.SectionUncertainty:              "u",
			domain.SectionSystematicInvestigation:  "s",
			domain.SectionTechnologicalAdvancement: "t",
		},
	}
}
