package services

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/custodia-labs/sred-drafter/internal/core/domain"
	"github.com/custodia-labs/sred-drafter/internal/core/ports/driven"
	"github.com/custodia-labs/sred-drafter/internal/core/ports/driving"
	"github.com/custodia-labs/sred-drafter/internal/logger"
	"github.com/custodia-labs/sred-drafter/internal/metrics"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

const (
	jsonlExtension   = ".jsonl"
	defaultBatchSize = 32
	maxJSONLLine     = 4 << 20
)

// IngestService rebuilds the exemplar collection from approved reports.
// It is the only writer of the collection.
type IngestService struct {
	collection driven.ExemplarCollection
	embedder   driven.EmbeddingService
	parser     driven.ReportParser
	batchSize  int
	metrics    *metrics.Recorder
}

// NewIngestService creates an ingest service.
func NewIngestService(
	collection driven.ExemplarCollection,
	embedder driven.EmbeddingService,
	parser driven.ReportParser,
) *IngestService {
	return &IngestService{
		collection: collection,
		embedder:   embedder,
		parser:     parser,
		batchSize:  defaultBatchSize,
	}
}

// SetBatchSize sets how many texts are embedded per request.
func (s *IngestService) SetBatchSize(n int) {
	if n > 0 {
		s.batchSize = n
	}
}

// SetMetrics sets the metrics recorder.
func (s *IngestService) SetMetrics(m *metrics.Recorder) {
	s.metrics = m
}

// Ingest reads a directory of reports, a single report, or a JSONL file of
// section records, embeds every record, and replaces the collection contents.
// The collection is left untouched when reading or embedding fails.
func (s *IngestService) Ingest(ctx context.Context, path string) (*domain.IngestSummary, error) {
	logger.Section("Ingestion")
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	summary := &domain.IngestSummary{
		Collection: s.collection.Name(),
		BySection:  make(map[domain.SectionKey]int),
	}

	records, err := s.readRecords(path, summary)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no approved sections found in %s", domain.ErrInvalidInput, path)
	}
	logger.Info("Read %d section record(s) from %d report(s)", len(records), summary.Reports)

	exemplars, err := s.embedRecords(ctx, records)
	if err != nil {
		return nil, err
	}

	if err := s.collection.Reset(ctx); err != nil {
		return nil, fmt.Errorf("reset collection: %w", err)
	}
	for start := 0; start < len(exemplars); start += s.batchSize {
		end := min(start+s.batchSize, len(exemplars))
		if err := s.collection.Add(ctx, exemplars[start:end]); err != nil {
			return nil, fmt.Errorf("add exemplars: %w", err)
		}
	}

	summary.Records = len(exemplars)
	for _, r := range records {
		summary.BySection[r.Section]++
	}
	s.metrics.Ingested(len(exemplars))
	logger.Info("Collection %s rebuilt with %d exemplar(s)", summary.Collection, summary.Records)
	return summary, nil
}

func (s *IngestService) readRecords(path string, summary *domain.IngestSummary) ([]domain.SectionRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	switch {
	case info.IsDir():
		return s.readReportDir(path, summary)
	case strings.EqualFold(filepath.Ext(path), jsonlExtension):
		return readJSONL(path, summary)
	case s.accepts(path):
		summary.Reports = 1
		return s.parseReport(path, reportID(1), summary)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, path)
	}
}

// readReportDir parses every top-level report file in name order. Report ids
// are assigned 001, 002, ... in that order.
func (s *IngestService) readReportDir(dir string, summary *domain.IngestSummary) ([]domain.SectionRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var records []domain.SectionRecord
	for _, entry := range entries {
		if entry.IsDir() || !s.accepts(entry.Name()) {
			continue
		}
		summary.Reports++
		parsed, err := s.parseReport(filepath.Join(dir, entry.Name()), reportID(summary.Reports), summary)
		if err != nil {
			return nil, err
		}
		records = append(records, parsed...)
	}
	return records, nil
}

func (s *IngestService) parseReport(path, id string, summary *domain.IngestSummary) ([]domain.SectionRecord, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	records, err := s.parser.Parse(content, path, id)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		logger.Warn("No sections found in %s", path)
		summary.Skipped = append(summary.Skipped, path)
	}
	logger.Debug("%s -> report %s, %d section(s)", path, id, len(records))
	return records, nil
}

func (s *IngestService) accepts(name string) bool {
	if s.parser == nil {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	return slices.Contains(s.parser.Extensions(), ext)
}

// readJSONL reads one SectionRecord per non-blank line.
func readJSONL(path string, summary *domain.IngestSummary) ([]domain.SectionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reports := make(map[string]struct{})
	var records []domain.SectionRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxJSONLLine)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec domain.SectionRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", domain.ErrInvalidInput, path, line, err)
		}
		if !rec.Section.IsValid() {
			return nil, fmt.Errorf("%w %q at %s line %d", domain.ErrUnknownSection, rec.Section, path, line)
		}
		reports[rec.ReportID] = struct{}{}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	summary.Reports = len(reports)
	return records, nil
}

func (s *IngestService) embedRecords(ctx context.Context, records []domain.SectionRecord) ([]domain.Exemplar, error) {
	exemplars := make([]domain.Exemplar, len(records))
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = ExemplarText(r)
		exemplars[i] = domain.Exemplar{
			ID:      exemplarID(r, i),
			Passage: domain.ExemplarPassage{Text: texts[i], Metadata: r.Metadata()},
		}
	}

	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))
		vectors, err := s.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed records %d-%d: %w", start, end-1, err)
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("embed records %d-%d: got %d vectors", start, end-1, len(vectors))
		}
		for i, v := range vectors {
			exemplars[start+i].Embedding = v
		}
		logger.Debug("Embedded %d/%d", end, len(texts))
	}
	return exemplars, nil
}

// ExemplarText is the stored passage text: project title, the bracketed
// section key, and the body, separated by blank lines. Empty parts are omitted.
func ExemplarText(r domain.SectionRecord) string {
	parts := make([]string, 0, 3)
	if r.ProjectTitle != "" {
		parts = append(parts, r.ProjectTitle)
	}
	if r.Section != "" {
		parts = append(parts, "["+string(r.Section)+"]")
	}
	if r.Text != "" {
		parts = append(parts, r.Text)
	}
	return strings.Join(parts, "\n\n")
}

func exemplarID(r domain.SectionRecord, idx int) string {
	report := r.ReportID
	if report == "" {
		report = "000"
	}
	return fmt.Sprintf("%s-%s-%d", report, r.Section, idx)
}

func reportID(n int) string {
	return fmt.Sprintf("%03d", n)
}
