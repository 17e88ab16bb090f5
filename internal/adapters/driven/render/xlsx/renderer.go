// Package xlsx renders the final placeholder map as a review workbook.
//
// The workbook has a "Campos" sheet with one row per scalar placeholder and
// one extra sheet per list placeholder (activities, members), with a column
// per record key. Reviewers use it to check values before the official
// report template is filled.
package xlsx

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driven"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/logger"
)

// Ensure Renderer implements the interface.
var _ driven.DocumentRenderer = (*Renderer)(nil)

// FieldsSheet is the name of the scalar placeholder sheet.
const FieldsSheet = "Campos"

// maxSheetName is the sheet name limit imposed by Excel.
const maxSheetName = 31

// Renderer writes workbooks into an output directory.
type Renderer struct {
	dir string
	now func() time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithClock sets the clock used for the generated-at cell.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		r.now = now
	}
}

// New creates a renderer writing into dir.
// If dir is empty, uses ~/.azurebridge/reports.
func New(dir string, opts ...Option) (*Renderer, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".azurebridge", "reports")
	}
	r := &Renderer{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Dir returns the output directory.
func (r *Renderer) Dir() string {
	return r.dir
}

// Render writes the workbook for req and reports where it went.
func (r *Renderer) Render(ctx context.Context, req driven.RenderRequest) (*driven.RenderedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.ProjectID == "" || req.PeriodKey == "" {
		return nil, fmt.Errorf("%w: render request needs project and period", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(r.dir, 0700); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetName("Sheet1", FieldsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	scalars, lists := split(req.Placeholders)

	w := &sheetWriter{f: f, sheet: FieldsSheet}
	w.row("Projeto", req.ProjectID)
	w.row("Período", req.PeriodKey)
	w.row("Geração", req.GenerationID)
	w.row("Gerado em", r.now().UTC().Format(time.RFC3339))
	w.row()
	header := w.next
	w.row("Campo", "Valor")
	_ = f.SetCellStyle(FieldsSheet, "A1", fmt.Sprintf("A%d", header-1), bold)
	_ = f.SetCellStyle(FieldsSheet, fmt.Sprintf("A%d", header), fmt.Sprintf("B%d", header), bold)
	for _, name := range scalars {
		w.row(name, cellValue(req.Placeholders[name]))
	}
	_ = f.SetColWidth(FieldsSheet, "A", "A", 32)
	_ = f.SetColWidth(FieldsSheet, "B", "B", 80)
	if w.err != nil {
		return nil, fmt.Errorf("write %s: %w", FieldsSheet, w.err)
	}

	used := map[string]bool{FieldsSheet: true}
	for _, name := range lists {
		items, _ := domain.AsList(req.Placeholders[name])
		sheet := sheetName(name, used)
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", sheet, err)
		}
		if err := writeList(f, sheet, items, bold); err != nil {
			return nil, fmt.Errorf("write %s: %w", sheet, err)
		}
	}
	f.SetActiveSheet(0)

	name := fileName(req)
	path := filepath.Join(r.dir, name)
	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("save workbook: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat workbook: %w", err)
	}

	logger.Debug("xlsx: wrote %s (%d fields, %d lists)", path, len(scalars), len(lists))
	return &driven.RenderedDocument{Name: name, Location: path, Bytes: info.Size()}, nil
}

// split separates placeholder names into scalar and list-shaped ones,
// each sorted by name.
func split(m domain.PlaceholderMap) (scalars, lists []string) {
	for name, v := range m {
		if _, ok := domain.AsList(v); ok {
			lists = append(lists, name)
			continue
		}
		scalars = append(scalars, name)
	}
	sort.Strings(scalars)
	sort.Strings(lists)
	return scalars, lists
}

// writeList writes items as a table. Records get one column per key in
// first-seen order; plain values go in a single "Valor" column.
func writeList(f *excelize.File, sheet string, items []any, style int) error {
	var columns []string
	seen := make(map[string]bool)
	for _, item := range items {
		rec, ok := domain.AsRecord(item)
		if !ok {
			continue
		}
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	if len(columns) == 0 {
		columns = []string{"Valor"}
	}

	w := &sheetWriter{f: f, sheet: sheet}
	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	w.row(header...)
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	_ = f.SetCellStyle(sheet, "A1", last, style)

	for _, item := range items {
		rec, ok := domain.AsRecord(item)
		if !ok {
			w.row(cellValue(item))
			continue
		}
		cells := make([]any, len(columns))
		for i, c := range columns {
			cells[i] = cellValue(rec[c])
		}
		w.row(cells...)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	_ = f.SetColWidth(sheet, "A", lastCol, 28)
	return w.err
}

// sheetWriter appends rows, keeping the first error.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	next  int
	err   error
}

func (w *sheetWriter) row(values ...any) {
	if w.next == 0 {
		w.next = 1
	}
	for i, v := range values {
		if w.err != nil {
			return
		}
		cell, err := excelize.CoordinatesToCellName(i+1, w.next)
		if err != nil {
			w.err = err
			return
		}
		w.err = w.f.SetCellValue(w.sheet, cell, v)
	}
	w.next++
}

// cellValue converts a JSON-shaped value to something a cell can hold.
func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case string, float64, int, bool:
		return t
	}
	if list, ok := domain.AsList(v); ok {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			parts = append(parts, fmt.Sprint(cellValue(item)))
		}
		return strings.Join(parts, "; ")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// sheetName derives a unique, valid sheet name from a placeholder name.
func sheetName(name string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, name)
	if clean == "" {
		clean = "Lista"
	}
	base := truncateRunes(clean, maxSheetName)
	candidate := base
	for i := 2; used[candidate]; i++ {
		suffix := fmt.Sprintf("_%d", i)
		candidate = truncateRunes(clean, maxSheetName-len(suffix)) + suffix
	}
	used[candidate] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func fileName(req driven.RenderRequest) string {
	id := req.GenerationID
	if len(id) > 8 {
		id = id[:8]
	}
	if id == "" {
		return fmt.Sprintf("%s_%s.xlsx", req.ProjectID, req.PeriodKey)
	}
	return fmt.Sprintf("%s_%s_%s.xlsx", req.ProjectID, req.PeriodKey, id)
}
