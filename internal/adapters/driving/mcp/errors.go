// Package mcp provides an MCP (Model Context Protocol) server adapter for the
// SR&ED drafter. It lets AI assistants draft reports and read the section
// catalog and system instructions.
package mcp

import "errors"

// ErrMissingReportService is returned when the report service is not provided.
var ErrMissingReportService = errors.New("mcp: report service is required")
