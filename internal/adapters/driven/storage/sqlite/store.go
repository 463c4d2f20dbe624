package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sred-drafter/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/sred-drafter/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sred-drafter/internal/core/domain"
	"github.com/custodia-labs/sred-drafter/internal/core/ports/driven"
)

// dbFileName is the database file inside the data directory.
const dbFileName = "exemplars.db"

// Store is a SQLite database holding one or more exemplar collections.
type Store struct {
	db   *sql.DB
	path string
}

// DefaultDataDir returns ~/.sred/data.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".sred", "data"), nil
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.sred/data/exemplars.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return nil, err
		}
		dataDir = dir
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Collection returns the named exemplar collection. The collection does not
// need to exist yet; ExemplarCollection.Exists reports whether it does.
func (s *Store) Collection(name string) driven.ExemplarCollection {
	if name == "" {
		name = domain.DefaultCollection
	}
	return &exemplarCollection{store: s, name: name}
}

// Collections lists existing collection names.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM collections ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_exemplars.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Exemplar Collection ====================

// exemplarCollection implements driven.ExemplarCollection for one named collection.
type exemplarCollection struct {
	store *Store
	name  string
}

var _ driven.ExemplarCollection = (*exemplarCollection)(nil)

// filterColumns maps filter fields to exemplar columns.
var filterColumns = map[domain.FilterField]string{
	domain.FilterStatus:   "status",
	domain.FilterSection:  "section",
	domain.FilterIndustry: "industry",
	domain.FilterTechCode: "tech_code",
}

// Name returns the collection name.
func (c *exemplarCollection) Name() string {
	return c.name
}

// Exists reports whether the collection has been created.
func (c *exemplarCollection) Exists(ctx context.Context) (bool, error) {
	_, err := c.dimensions(ctx)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Reset drops the collection and its exemplars, then recreates it empty.
func (c *exemplarCollection) Reset(ctx context.Context) error {
	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM exemplars WHERE collection = ?", c.name); err != nil {
		return fmt.Errorf("deleting exemplars: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", c.name); err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO collections (name) VALUES (?)", c.name); err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	return tx.Commit()
}

// Add inserts exemplars in one transaction. Every vector in a collection must
// have the same dimensions; the first Add fixes them.
func (c *exemplarCollection) Add(ctx context.Context, exemplars []domain.Exemplar) error {
	if len(exemplars) == 0 {
		return nil
	}
	dims, err := c.dimensions(ctx)
	if err != nil {
		return err
	}
	if dims == 0 {
		dims = len(exemplars[0].Embedding)
	}
	for _, e := range exemplars {
		if len(e.Embedding) != dims {
			return fmt.Errorf("%w: exemplar %s has %d dimensions, collection has %d",
				domain.ErrDimensionMismatch, e.ID, len(e.Embedding), dims)
		}
	}

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"UPDATE collections SET dimensions = ? WHERE name = ?", dims, c.name); err != nil {
		return fmt.Errorf("updating collection dimensions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO exemplars (id, collection, report_id, section, status, industry,
			tech_code, project_title, source_path, text, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range exemplars {
		m := e.Passage.Metadata
		_, err := stmt.ExecContext(ctx, e.ID, c.name, m.ReportID, m.Section, m.Status, m.Industry,
			m.TechCode, m.ProjectTitle, m.SourcePath, e.Passage.Text, float32SliceToBytes(e.Embedding))
		if err != nil {
			return fmt.Errorf("inserting exemplar %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// Count returns the number of exemplars in the collection.
func (c *exemplarCollection) Count(ctx context.Context) (int, error) {
	if _, err := c.dimensions(ctx); err != nil {
		return 0, err
	}
	var n int
	row := c.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM exemplars WHERE collection = ?", c.name)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("counting exemplars: %w", err)
	}
	return n, nil
}

// Query returns up to topK passages matching every constrained filter field,
// most similar first, ties in insertion order.
func (c *exemplarCollection) Query(
	ctx context.Context, embedding []float32, topK int, filter domain.RetrievalFilter,
) ([]domain.ExemplarPassage, error) {
	dims, err := c.dimensions(ctx)
	if err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []domain.ExemplarPassage{}, nil
	}
	if dims != 0 && len(embedding) != dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection has %d",
			domain.ErrDimensionMismatch, len(embedding), dims)
	}

	where, args := filterClause(c.name, filter)
	rows, err := c.store.db.QueryContext(ctx, `
		SELECT report_id, section, status, industry, tech_code, project_title,
			source_path, text, embedding
		FROM exemplars
		WHERE `+where+`
		ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying exemplars: %w", err)
	}
	defer rows.Close()

	var passages []domain.ExemplarPassage
	var candidates []similarity.Candidate
	for rows.Next() {
		p, vec, err := scanExemplar(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, similarity.Candidate{Index: len(passages), Vector: vec})
		passages = append(passages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating exemplars: %w", err)
	}

	ranked := similarity.TopK(embedding, candidates, topK)
	out := make([]domain.ExemplarPassage, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, passages[r.Index])
	}
	return out, nil
}

// dimensions returns the collection's vector size, 0 when it holds no vectors
// yet, or domain.ErrCollectionNotFound.
func (c *exemplarCollection) dimensions(ctx context.Context) (int, error) {
	var dims int
	row := c.store.db.QueryRowContext(ctx, "SELECT dimensions FROM collections WHERE name = ?", c.name)
	if err := row.Scan(&dims); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrCollectionNotFound
		}
		return 0, fmt.Errorf("reading collection %s: %w", c.name, err)
	}
	return dims, nil
}

// filterClause builds the AND-ed equality predicate for a filter.
func filterClause(collection string, filter domain.RetrievalFilter) (string, []any) {
	fields := filter.Fields()
	names := make([]string, 0, len(fields))
	for field := range fields {
		names = append(names, string(field))
	}
	sort.Strings(names)

	clauses := []string{"collection = ?"}
	args := []any{collection}
	for _, name := range names {
		field := domain.FilterField(name)
		clauses = append(clauses, filterColumns[field]+" = ?")
		args = append(args, fields[field])
	}
	return strings.Join(clauses, " AND "), args
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanExemplar scans one exemplar row into a passage and its vector.
func scanExemplar(rows *sql.Rows) (domain.ExemplarPassage, []float32, error) {
	var p domain.ExemplarPassage
	var blob []byte
	m := &p.Metadata
	if err := rows.Scan(&m.ReportID, &m.Section, &m.Status, &m.Industry, &m.TechCode,
		&m.ProjectTitle, &m.SourcePath, &p.Text, &blob); err != nil {
		return p, nil, fmt.Errorf("scanning exemplar: %w", err)
	}
	return p, bytesToFloat32Slice(blob), nil
}
