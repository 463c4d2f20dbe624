package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sred-drafter/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sred-drafter/internal/core/domain"
	"github.com/custodia-labs/sred-drafter/internal/core/ports/driven"
)

// lineParser implements driven.ReportParser: each "section: text" line is one record.
type lineParser struct{}

var _ driven.ReportParser = lineParser{}

func (lineParser) Parse(content []byte, sourcePath, reportID string) ([]domain.SectionRecord, error) {
	var out []domain.SectionRecord
	for _, line := range strings.Split(string(content), "\n") {
		key, text, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		out = append(out, domain.SectionRecord{
			ReportID:     reportID,
			ProjectTitle: "Title " + reportID,
			Status:       domain.StatusApproved,
			Section:      domain.SectionKey(key),
			Text:         text,
			SourcePath:   sourcePath,
		})
	}
	return out, nil
}

func (lineParser) Extensions() []string { return []string{".md"} }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestIngest_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.md", "uncertainty: second report")
	writeFile(t, dir, "a.md", "uncertainty: first report\ntechnological_advancement: gained insight")
	writeFile(t, dir, "empty.md", "nothing here")
	writeFile(t, dir, "notes.txt", "uncertainty: ignored")

	ctx := context.Background()
	store := memory.NewExemplarStore("")
	service := NewIngestService(store, &mockEmbeddingService{}, lineParser{})
	service.SetBatchSize(2)

	summary, err := service.Ingest(ctx, dir)

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCollection, summary.Collection)
	assert.Equal(t, 3, summary.Reports)
	assert.Equal(t, 3, summary.Records)
	assert.Equal(t, 2, summary.BySection[domain.SectionUncertainty])
	assert.Equal(t, 1, summary.BySection[domain.SectionTechnologicalAdvancement])
	require.Len(t, summary.Skipped, 1)
	assert.Equal(t, "empty.md", filepath.Base(summary.Skipped[0]))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	exists, err := store.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	// a.md sorts first and becomes report 001.
	vec := make([]float32, 4)
	vec[len(ExemplarText(domain.SectionRecord{
		ProjectTitle: "Title 001", Section: domain.SectionUncertainty, Text: "first report",
	}))%4] = 1
	got, err := store.Query(ctx, vec, 3, domain.NewStrictFilter(domain.SectionUncertainty, "", ""))
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "Title 001\n\n[uncertainty]\n\nfirst report", got[0].Text)
	assert.Equal(t, "001", got[0].Metadata.ReportID)
}

func TestIngest_ReplacesCollection(t *testing.T) {
	ctx := context.Background()
	store := memory.NewExemplarStore("")
	service := NewIngestService(store, &mockEmbeddingService{}, lineParser{})

	dir := t.TempDir()
	writeFile(t, dir, "a.md", "uncertainty: one\nuncertainty: two")
	_, err := service.Ingest(ctx, dir)
	require.NoError(t, err)

	dir2 := t.TempDir()
	writeFile(t, dir2, "a.md", "uncertainty: only")
	_, err = service.Ingest(ctx, dir2)
	require.NoError(t, err)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIngest_JSONL(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "approved_sections.jsonl", strings.Join([]string{
		`{"report_id":"001","project_title":"Kiln","status":"approved","industry":"ceramics","tech_code":"01.02.03","section":"uncertainty","text":"a","source_path":"x.md"}`,
		``,
		`{"report_id":"001","project_title":"Kiln","status":"approved","section":"systematic_investigation","text":"b"}`,
		`{"report_id":"002","status":"approved","section":"uncertainty","text":"c"}`,
	}, "\n"))

	ctx := context.Background()
	store := memory.NewExemplarStore("")
	summary, err := NewIngestService(store, &mockEmbeddingService{}, lineParser{}).Ingest(ctx, path)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Reports)
	assert.Equal(t, 3, summary.Records)

	got, err := store.Query(ctx, make([]float32, 4), 5,
		domain.NewStrictFilter(domain.SectionUncertainty, "01.02.03", "ceramics"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Kiln\n\n[uncertainty]\n\na", got[0].Text)
}

func TestIngest_JSONLErrors(t *testing.T) {
	dir := t.TempDir()
	service := NewIngestService(memory.NewExemplarStore(""), &mockEmbeddingService{}, lineParser{})

	bad := writeFile(t, dir, "bad.jsonl", "{not json")
	_, err := service.Ingest(context.Background(), bad)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	unknown := writeFile(t, dir, "unknown.jsonl", `{"section":"budget","text":"x"}`)
	_, err = service.Ingest(context.Background(), unknown)
	assert.ErrorIs(t, err, domain.ErrUnknownSection)
}

func TestIngest_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	t.Run("unsupported file", func(t *testing.T) {
		path := writeFile(t, dir, "report.pdf", "x")
		_, err := NewIngestService(memory.NewExemplarStore(""), &mockEmbeddingService{}, lineParser{}).Ingest(ctx, path)
		assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := NewIngestService(memory.NewExemplarStore(""), &mockEmbeddingService{}, lineParser{}).
			Ingest(ctx, filepath.Join(dir, "nope"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("no records", func(t *testing.T) {
		empty := t.TempDir()
		_, err := NewIngestService(memory.NewExemplarStore(""), &mockEmbeddingService{}, lineParser{}).Ingest(ctx, empty)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("no embedder", func(t *testing.T) {
		_, err := NewIngestService(memory.NewExemplarStore(""), nil, lineParser{}).Ingest(ctx, dir)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("embedding failure leaves collection untouched", func(t *testing.T) {
		src := t.TempDir()
		writeFile(t, src, "a.md", "uncertainty: x")
		store := memory.NewExemplarStore("")
		cause := errors.New("quota")

		_, err := NewIngestService(store, &mockEmbeddingService{embedErr: cause}, lineParser{}).Ingest(ctx, src)

		assert.ErrorIs(t, err, cause)
		exists, _ := store.Exists(ctx)
		assert.False(t, exists)
	})
}

func TestIngest_SingleReport(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "one.md", "uncertainty: x")
	store := memory.NewExemplarStore("")

	summary, err := NewIngestService(store, &mockEmbeddingService{}, lineParser{}).Ingest(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Reports)
	assert.Equal(t, 1, summary.Records)
}

func TestExemplarText(t *testing.T) {
	assert.Equal(t, "T\n\n[uncertainty]\n\nbody",
		ExemplarText(domain.SectionRecord{ProjectTitle: "T", Section: domain.SectionUncertainty, Text: "body"}))
	assert.Equal(t, "[uncertainty]\n\nbody",
		ExemplarText(domain.SectionRecord{Section: domain.SectionUncertainty, Text: "body"}))
	assert.Equal(t, "002-uncertainty-7", exemplarID(domain.SectionRecord{ReportID: "002", Section: "uncertainty"}, 7))
	assert.Equal(t, "000-uncertainty-0", exemplarID(domain.SectionRecord{Section: "uncertainty"}, 0))
}
