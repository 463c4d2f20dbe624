package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sred-drafter/internal/core/domain"
)

// GenerateReportInput is the input schema for the generate_report tool.
type GenerateReportInput struct {
	Industry           string `json:"industry" jsonschema:"the project's industry or domain (required)"`
	TechCode           string `json:"tech_code,omitempty" jsonschema:"technology classification code, e.g. 01.02.03"`
	ProjectDescription string `json:"project_description,omitempty" jsonschema:"brief summary of the work"`
	CompanySummary     string `json:"company_summary,omitempty" jsonschema:"description of the claimant's business"`
}

// GenerateReportOutput is the output schema for the generate_report tool.
type GenerateReportOutput struct {
	ReportID string            `json:"report_id"`
	Sections map[string]string `json:"sections"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "generate_report",
		Description: "Draft the three SR&ED narrative sections (uncertainty, systematic investigation, " +
			"technological advancement) for a project, grounded on approved exemplar reports",
	}, s.handleGenerateReport)
}

// handleGenerateReport handles the generate_report tool invocation.
func (s *Server) handleGenerateReport(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GenerateReportInput,
) (*mcp.CallToolResult, GenerateReportOutput, error) {
	project := domain.ProjectContext{
		Industry:           input.Industry,
		TechCode:           input.TechCode,
		ProjectDescription: input.ProjectDescription,
		CompanySummary:     input.CompanySummary,
	}.Trimmed()
	if err := project.Validate(); err != nil {
		return nil, GenerateReportOutput{}, err
	}

	report, err := s.ports.Report.GenerateReport(ctx, project)
	if err != nil {
		return nil, GenerateReportOutput{}, err
	}

	return nil, GenerateReportOutput{
		ReportID: report.ID,
		Sections: report.SectionTexts(),
	}, nil
}
