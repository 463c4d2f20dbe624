package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sred-drafter/internal/core/domain"
)

// MockReportService implements driving.ReportService for testing.
type MockReportService struct {
	GenerateReportFunc func(ctx context.Context, project domain.ProjectContext) (*domain.Report, error)
	calls              []domain.ProjectContext
}

func (m *MockReportService) GenerateReport(
	ctx context.Context, project domain.ProjectContext,
) (*domain.Report, error) {
	m.calls = append(m.calls, project)
	if m.GenerateReportFunc != nil {
		return m.GenerateReportFunc(ctx, project)
	}
	return &domain.Report{ID: "r1", Project: project, Sections: map[domain.SectionKey]string{}}, nil
}

// MockCatalogProvider implements driving.SectionCatalogProvider for testing.
type MockCatalogProvider struct {
	catalog *domain.SectionCatalog
}

func (m *MockCatalogProvider) Catalog() *domain.SectionCatalog {
	return m.catalog
}

func TestNewPorts(t *testing.T) {
	report := &MockReportService{}
	catalog := &MockCatalogProvider{catalog: domain.DefaultSectionCatalog()}

	ports := NewPorts(report, catalog)

	require.NotNil(t, ports)
	assert.Equal(t, report, ports.Report)
	assert.Equal(t, catalog, ports.Catalog)
}

func TestPorts_Validate(t *testing.T) {
	t.Run("valid without catalog", func(t *testing.T) {
		ports := &Ports{Report: &MockReportService{}}
		assert.NoError(t, ports.Validate())
	})

	t.Run("missing report service", func(t *testing.T) {
		ports := &Ports{Catalog: &MockCatalogProvider{}}
		assert.ErrorIs(t, ports.Validate(), ErrMissingReportService)
	})

	t.Run("nil ports", func(t *testing.T) {
		var ports *Ports
		assert.ErrorIs(t, ports.Validate(), ErrInvalidPorts)
	})
}
