package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sred-drafter/internal/core/domain"
)

func TestIngestCmd_RequiresPath(t *testing.T) {
	withServices(t, &Services{Ingest: &mockIngestService{}})

	_, err := execute(t, "ingest")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestIngestCmd_PrintsSummary(t *testing.T) {
	svc := &mockIngestService{summary: &domain.IngestSummary{
		Collection: "sred_reports",
		Reports:    2,
		Records:    5,
		BySection: map[domain.SectionKey]int{
			domain.SectionUncertainty:             2,
			domain.SectionSystematicInvestigation: 3,
		},
		Skipped: []string{"notes.md"},
	}}
	withServices(t, &Services{Ingest: svc})

	out, err := execute(t, "ingest", "./reports")

	require.NoError(t, err)
	assert.Equal(t, "./reports", svc.path)
	assert.Contains(t, out, `Collection "sred_reports" rebuilt: 5 record(s) from 2 report(s)`)
	assert.Contains(t, out, "systematic_investigation")
	assert.Contains(t, out, "Skipped 1 file(s)")
	assert.Contains(t, out, "notes.md")
}

func TestIngestCmd_Error(t *testing.T) {
	withServices(t, &Services{Ingest: &mockIngestService{err: domain.ErrUnsupportedFormat}})

	_, err := execute(t, "ingest", "report.pdf")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedFormat))
	assert.Contains(t, err.Error(), "ingest failed")
}
