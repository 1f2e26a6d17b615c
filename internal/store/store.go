// Package store persists hypothesis records in an append-only CSV file.
//
// The file is the source of truth for the whole pipeline and has changed
// schema in place more than once, so Load never fails on old data: missing
// files, byte-order marks, shuffled or partial headers, and a headerless
// legacy layout are all recovered with best-effort defaults.
//
// Normal operation only ever appends. Rewrite exists for the explicit prune
// maintenance path and nothing else.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lommaks/researchdigest/internal/logging"
	"github.com/lommaks/researchdigest/internal/relevance"
	"github.com/lommaks/researchdigest/internal/scoring"
)

// DateFormat is the calendar-date layout used in the Date column.
const DateFormat = "02.01.2006"

// Header is the canonical column order for the store file.
var Header = []string{"Date", "Section", "Source", "Category", "Idea", "Ease", "Potential", "Score", "Link", "Rationale"}

// Record is one row of the store. Records are immutable once appended.
type Record struct {
	Date      string
	Section   string
	Source    string
	Category  string
	Idea      string
	Ease      float64
	Potential float64
	Score     float64
	Link      string
	Rationale string
}

// Store reads and writes the hypothesis CSV file.
//
// Single-writer, single-reader per run. Concurrent processes would need an
// external file lock; none is taken here because no multi-process contention
// exists in a scheduled one-shot run.
type Store struct {
	path    string
	weights scoring.Weights
	filter  *relevance.Filter
}

// New creates a Store bound to path. The weights and filter are used when
// upgrading legacy rows (score computation, category inference).
func New(path string, weights scoring.Weights, filter *relevance.Filter) *Store {
	return &Store{path: path, weights: weights, filter: filter}
}

// Path returns the file path this store is bound to.
func (s *Store) Path() string {
	return s.path
}

// Load reads all records from disk.
//
// A missing or empty file yields an empty slice, not an error. Malformed
// rows never abort the load; unparseable fields default to zero values.
func (s *Store) Load() ([]Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Skip the unreadable row, keep everything else.
			logging.Warn("skipping malformed store row", "error", err)
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return []Record{}, nil
	}

	stripBOM(rows[0])

	if isHeader(rows[0]) {
		return s.parseWithHeader(rows[0], rows[1:]), nil
	}
	if isLegacy(rows) {
		logging.Info("legacy headerless store detected, upgrading in memory", "rows", len(rows))
		return s.upgradeLegacy(rows), nil
	}
	// Headerless but not the known legacy layout: assume canonical order.
	return s.parseWithHeader(Header, rows), nil
}

// Append writes records after any existing rows, creating the file with a
// header when absent. No-op on empty input. I/O errors are fatal and
// propagate to the caller.
func (s *Store) Append(records []Record) error {
	if len(records) == 0 {
		return nil
	}

	writeHeader := false
	if fi, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) || (err == nil && fi.Size() == 0) {
		writeHeader = true
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open store for append: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for _, rec := range records {
		if err := w.Write(toRow(rec)); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush store: %w", err)
	}
	return nil
}

// Rewrite replaces the whole file with exactly the given records.
// Maintenance-only: the prune command uses this to drop rows that no longer
// pass the relevance filter. Normal runs never call it.
func (s *Store) Rewrite(records []Record) error {
	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temp store: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		f.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(toRow(rec)); err != nil {
			f.Close()
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush store: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace store: %w", err)
	}
	return nil
}

// parseWithHeader maps rows through header column positions. Columns may
// appear in any order; absent columns default to empty string / 0.
func (s *Store) parseWithHeader(header []string, rows [][]string) []Record {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[normalizeColumn(name)] = i
	}
	col := func(row []string, name string) string {
		i, ok := idx[normalizeColumn(name)]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		rec := Record{
			Date:      col(row, "Date"),
			Section:   col(row, "Section"),
			Source:    col(row, "Source"),
			Category:  col(row, "Category"),
			Idea:      col(row, "Idea"),
			Ease:      scoring.CoerceRating(col(row, "Ease")),
			Potential: scoring.CoerceRating(col(row, "Potential")),
			Link:      col(row, "Link"),
			Rationale: col(row, "Rationale"),
		}
		rec.Score = parseScore(col(row, "Score"))
		// Persisted score is authoritative; recompute only when it is
		// missing but the sub-ratings are not.
		if rec.Score == 0 && (rec.Ease > 0 || rec.Potential > 0) {
			rec.Score = s.weights.Score(rec.Ease, rec.Potential)
		}
		records = append(records, rec)
	}
	return records
}

// upgradeLegacy converts headerless (section, source, idea, ease,
// potential, link) rows in memory. The file itself is left untouched.
func (s *Store) upgradeLegacy(rows [][]string) []Record {
	today := time.Now().Format(DateFormat)
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		if len(row) != legacyColumns {
			continue
		}
		rec := Record{
			Date:      today,
			Section:   row[0],
			Source:    row[1],
			Idea:      row[2],
			Ease:      scoring.CoerceRating(row[3]),
			Potential: scoring.CoerceRating(row[4]),
			Link:      row[5],
		}
		rec.Category = string(s.filter.InferCategory(rec.Idea))
		rec.Score = s.weights.Score(rec.Ease, rec.Potential)
		records = append(records, rec)
	}
	return records
}

// legacyColumns is the fixed width of the headerless legacy schema.
const legacyColumns = 6

// isHeader reports whether the first row names at least one canonical
// column. Column names may be reordered or partially missing.
func isHeader(row []string) bool {
	for _, cell := range row {
		name := normalizeColumn(cell)
		for _, h := range Header {
			if name == normalizeColumn(h) {
				return true
			}
		}
	}
	return false
}

// isLegacy applies the legacy-schema heuristic: every row is exactly six
// columns wide, and for a majority of rows the ease/potential positions
// parse as numbers while the last looks like a URL.
func isLegacy(rows [][]string) bool {
	if len(rows) == 0 {
		return false
	}
	matching := 0
	for _, row := range rows {
		if len(row) != legacyColumns {
			return false
		}
		if isNumeric(row[3]) && isNumeric(row[4]) && isURL(row[5]) {
			matching++
		}
	}
	return matching*2 > len(rows)
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

func isURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func parseScore(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func normalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
}

func stripBOM(row []string) {
	if len(row) > 0 {
		row[0] = strings.TrimPrefix(row[0], "\ufeff")
	}
}

func toRow(rec Record) []string {
	return []string{
		rec.Date,
		rec.Section,
		rec.Source,
		rec.Category,
		rec.Idea,
		formatNumber(rec.Ease),
		formatNumber(rec.Potential),
		formatNumber(rec.Score),
		rec.Link,
		rec.Rationale,
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
