// Package report parses approved SR&ED reports written in markdown into
// section records ready for embedding.
//
// A report marks its form lines with bold line numbers: **200** precedes the
// project title, **206** the technology code, and **242**, **244** and **246**
// open the three narrative sections. Markers are located on the goldmark AST,
// so a number inside a code block or written without emphasis is not a marker.
//
// An optional YAML front matter block supplies facts the form does not carry:
//
//	---
//	industry: Agriculture
//	status: approved
//	project_title: Yield model
//	tech_code: 01.02.03
//	---
package report

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/sred-drafter/internal/core/domain"
	"github.com/custodia-labs/sred-drafter/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.ReportParser = (*Parser)(nil)

// Form line numbers.
const (
	markerTitle    = "200"
	markerTechCode = "206"
)

// sectionMarkers maps narrative line numbers to report sections.
var sectionMarkers = map[string]domain.SectionKey{
	"242": domain.SectionUncertainty,
	"244": domain.SectionSystematicInvestigation,
	"246": domain.SectionTechnologicalAdvancement,
}

var techCodePattern = regexp.MustCompile(`\d{1,2}\.\d{2}\.\d{2}`)

// FrontMatter holds the optional YAML header. Non-empty fields override what
// the body yields.
type FrontMatter struct {
	Industry     string `yaml:"industry"`
	Status       string `yaml:"status"`
	ProjectTitle string `yaml:"project_title"`
	TechCode     string `yaml:"tech_code"`
}

// Parser extracts section records from markdown reports.
type Parser struct {
	md goldmark.Markdown
}

// New creates a report parser.
func New() *Parser {
	return &Parser{md: goldmark.New()}
}

// Extensions returns the file extensions the parser accepts.
func (p *Parser) Extensions() []string {
	return []string{".md", ".markdown"}
}

// Parse extracts one record per non-empty narrative section, in document order.
// A report with no section markers yields no records and no error.
func (p *Parser) Parse(content []byte, sourcePath, reportID string) ([]domain.SectionRecord, error) {
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))

	fm, body, err := splitFrontMatter(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: front matter: %v", domain.ErrInvalidInput, sourcePath, err)
	}

	lines := strings.Split(string(body), "\n")
	markers := p.findMarkers(body)

	title := firstNonEmptyAfter(lines, markers, markerTitle)
	techCode := ""
	if line := firstNonEmptyAfter(lines, markers, markerTechCode); line != "" {
		techCode = techCodePattern.FindString(line)
	}

	rec := domain.SectionRecord{
		ReportID:     reportID,
		ProjectTitle: title,
		Status:       domain.StatusApproved,
		TechCode:     techCode,
		SourcePath:   sourcePath,
	}
	fm.apply(&rec)

	var records []domain.SectionRecord
	for _, s := range sectionSpans(markers, len(lines)) {
		body := strings.TrimSpace(strings.Join(stripBlankEdges(lines[s.start:s.end]), "\n"))
		if body == "" {
			continue
		}
		r := rec
		r.Section = s.section
		r.Text = body
		records = append(records, r)
	}
	return records, nil
}

func (fm FrontMatter) apply(rec *domain.SectionRecord) {
	if v := strings.TrimSpace(fm.Industry); v != "" {
		rec.Industry = v
	}
	if v := strings.TrimSpace(fm.Status); v != "" {
		rec.Status = v
	}
	if v := strings.TrimSpace(fm.ProjectTitle); v != "" {
		rec.ProjectTitle = v
	}
	if v := strings.TrimSpace(fm.TechCode); v != "" {
		rec.TechCode = v
	}
}

// splitFrontMatter separates a leading "---" delimited YAML block from the body.
// The body keeps its own line numbering; front matter lines are removed.
func splitFrontMatter(content []byte) (FrontMatter, []byte, error) {
	var fm FrontMatter
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return fm, content, nil
	}
	rest := content[len("---\n"):]

	end := bytes.Index(rest, []byte("\n---\n"))
	closing := len("\n---\n")
	if end < 0 {
		if !bytes.HasSuffix(rest, []byte("\n---")) {
			return fm, content, nil
		}
		end = len(rest) - len("\n---")
		closing = len("\n---")
	}

	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return fm, nil, err
	}
	return fm, rest[end+closing:], nil
}

// markerLine is a form marker and the body line it sits on.
type markerLine struct {
	number string
	line   int
}

// findMarkers returns every bold form number in the body, ordered by line.
func (p *Parser) findMarkers(body []byte) []markerLine {
	doc := p.md.Parser().Parse(text.NewReader(body))
	starts := lineStarts(body)

	var found []markerLine
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		em, ok := n.(*ast.Emphasis)
		if !ok || em.Level != 2 {
			return ast.WalkContinue, nil
		}
		number := strings.TrimSpace(plainText(em, body))
		if number != markerTitle && number != markerTechCode && sectionMarkers[number] == "" {
			return ast.WalkSkipChildren, nil
		}
		if offset, ok := blockOffset(em); ok {
			found = append(found, markerLine{number: number, line: lineOf(starts, offset)})
		}
		return ast.WalkSkipChildren, nil
	})

	sort.SliceStable(found, func(i, j int) bool { return found[i].line < found[j].line })
	return found
}

// plainText concatenates the text segments under n.
func plainText(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
			continue
		}
		b.WriteString(plainText(c, source))
	}
	return b.String()
}

// blockOffset returns the byte offset of the emphasis text, falling back to the
// first line of the enclosing block.
func blockOffset(n ast.Node) (int, bool) {
	if t, ok := n.FirstChild().(*ast.Text); ok {
		return t.Segment.Start, true
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == ast.TypeBlock && p.Lines().Len() > 0 {
			return p.Lines().At(0).Start, true
		}
	}
	return 0, false
}

func lineStarts(body []byte) []int {
	starts := []int{0}
	for i, b := range body {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func lineOf(starts []int, offset int) int {
	return sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1
}

// firstNonEmptyAfter returns the first non-blank line after the first marker
// with the given number, trimmed.
func firstNonEmptyAfter(lines []string, markers []markerLine, number string) string {
	for _, m := range markers {
		if m.number != number {
			continue
		}
		for _, l := range lines[m.line+1:] {
			if s := strings.TrimSpace(l); s != "" {
				return s
			}
		}
		return ""
	}
	return ""
}

type span struct {
	section    domain.SectionKey
	start, end int
}

// sectionSpans gives each narrative marker the lines up to the next narrative
// marker or the end of the body. A repeated marker keeps its first occurrence.
func sectionSpans(markers []markerLine, lineCount int) []span {
	var narrative []markerLine
	for _, m := range markers {
		if sectionMarkers[m.number] != "" {
			narrative = append(narrative, m)
		}
	}

	seen := make(map[domain.SectionKey]bool)
	var spans []span
	for i, m := range narrative {
		end := lineCount
		if i+1 < len(narrative) {
			end = narrative[i+1].line
		}
		key := sectionMarkers[m.number]
		if seen[key] {
			continue
		}
		seen[key] = true
		spans = append(spans, span{section: key, start: m.line + 1, end: end})
	}
	return spans
}

func stripBlankEdges(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}
