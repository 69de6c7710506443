// Package batch runs lookups for every national ID in an Excel workbook
// and writes the extracted fields back as new columns.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/civiceg/voterlookup/arabic"
	"github.com/civiceg/voterlookup/district"
	"github.com/civiceg/voterlookup/models"
)

// IDColumnHeader marks the input column holding national IDs.
const IDColumnHeader = "الرقم القومي"

// Result columns appended to the workbook, in order.
var resultColumns = []string{
	"المركز الانتخابي",
	"الدائرة",
	"العنوان",
	"رقم اللجنة الفرعية",
	"رقمك في الكشوف الانتخابية",
	"الحالة",
}

// Status cell values.
const (
	statusEligible    = "له حق الانتخاب"
	statusIneligible  = "ليس له حق الانتخاب"
	statusUnderage    = "ليس له حق الانتخاب - تحت السن"
	statusOutOfScope  = "خارج النطاق المستهدف"
	statusLookupError = "تعذر الاستعلام"
)

// Retriever performs one registry lookup. *scraper.Scraper satisfies it.
type Retriever interface {
	Lookup(ctx context.Context, nationalID string, timeout time.Duration) (*models.LookupResult, error)
}

// Options controls a batch run.
type Options struct {
	// OutputPath is where the annotated workbook is written. Empty derives
	// "<input>_results.xlsx" next to the input.
	OutputPath string

	// Limit stops after this many rows. 0 processes every row.
	Limit int

	// RowDelay spaces lookups, on top of the scraper's own pacing.
	RowDelay time.Duration

	// Timeout bounds each individual lookup. 0 uses the service default.
	Timeout time.Duration
}

// Summary reports what a batch run did.
type Summary struct {
	Processed  int
	Eligible   int
	Ineligible int
	OutOfScope int
	Skipped    int
	Errors     int
	OutputPath string
	Elapsed    time.Duration
}

// Processor annotates workbooks row by row.
type Processor struct {
	retriever Retriever
	filter    *district.Filter
	opts      Options
}

func NewProcessor(rt Retriever, df *district.Filter, opts Options) *Processor {
	return &Processor{retriever: rt, filter: df, opts: opts}
}

// Run processes the workbook at inputPath. Rows whose ID cell is empty or
// malformed are skipped with a note rather than aborting the batch; the
// workbook is saved even when the context ends early, so partial progress
// survives interruption.
func (p *Processor) Run(ctx context.Context, inputPath string) (*Summary, error) {
	start := time.Now()

	f, err := excelize.OpenFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %q has no data rows", sheet)
	}

	idCol, err := findIDColumn(rows[0])
	if err != nil {
		return nil, err
	}
	outCols := ensureResultColumns(f, sheet, rows[0])

	outputPath := p.opts.OutputPath
	if outputPath == "" {
		ext := filepath.Ext(inputPath)
		outputPath = strings.TrimSuffix(inputPath, ext) + "_results" + ext
	}

	summary := &Summary{OutputPath: outputPath}

	for i := 1; i < len(rows); i++ {
		if p.opts.Limit > 0 && summary.Processed >= p.opts.Limit {
			break
		}
		if ctx.Err() != nil {
			slog.Warn("batch interrupted", "row", i+1, "error", ctx.Err())
			break
		}

		rowNum := i + 1 // sheet rows are 1-based
		rawID := ""
		if idCol < len(rows[i]) {
			rawID = rows[i][idCol]
		}

		nationalID, verr := models.ValidateNationalID(arabic.NormalizeDigits(rawID))
		if verr != nil {
			slog.Warn("skipping row with invalid national ID", "row", rowNum, "error", verr)
			summary.Skipped++
			continue
		}

		if summary.Processed > 0 && p.opts.RowDelay > 0 {
			select {
			case <-time.After(p.opts.RowDelay):
			case <-ctx.Done():
			}
		}

		result, lerr := p.retriever.Lookup(ctx, nationalID, p.opts.Timeout)
		summary.Processed++
		if lerr != nil || !result.Success {
			slog.Warn("lookup failed for row", "row", rowNum, "error", lerr)
			summary.Errors++
			writeRow(f, sheet, rowNum, outCols, models.Record{}, statusLookupError)
			continue
		}

		p.writeOutcome(f, sheet, rowNum, outCols, result.Outcome, summary)
	}

	if err := f.SaveAs(outputPath); err != nil {
		return nil, fmt.Errorf("save workbook: %w", err)
	}

	summary.Elapsed = time.Since(start)
	slog.Info("batch complete",
		"processed", summary.Processed,
		"eligible", summary.Eligible,
		"ineligible", summary.Ineligible,
		"outOfScope", summary.OutOfScope,
		"skipped", summary.Skipped,
		"errors", summary.Errors,
		"output", outputPath,
	)
	return summary, nil
}

// writeOutcome maps one classified outcome onto the row's result cells.
func (p *Processor) writeOutcome(f *excelize.File, sheet string, rowNum int, outCols []int, outcome *models.Outcome, summary *Summary) {
	switch outcome.Status {
	case models.StatusRegistered:
		if p.filter != nil && !p.filter.InScope(outcome.Record) {
			// Out-of-scope rows keep only the jurisdiction, like the API.
			summary.OutOfScope++
			writeRow(f, sheet, rowNum, outCols, models.Record{
				District: outcome.Record.District,
			}, statusOutOfScope)
			return
		}
		summary.Eligible++
		writeRow(f, sheet, rowNum, outCols, *outcome.Record, statusEligible)
	case models.StatusUnderage:
		summary.Ineligible++
		writeRow(f, sheet, rowNum, outCols, models.Record{}, statusUnderage)
	default:
		summary.Ineligible++
		writeRow(f, sheet, rowNum, outCols, models.Record{}, statusIneligible)
	}
}

// findIDColumn locates the national ID column in the header row.
func findIDColumn(header []string) (int, error) {
	for i, cell := range header {
		if strings.Contains(cell, IDColumnHeader) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no column headed %q in the first row", IDColumnHeader)
}

// ensureResultColumns reuses result columns already present in the header
// and appends the missing ones, returning the 1-based column index for each
// entry of resultColumns.
func ensureResultColumns(f *excelize.File, sheet string, header []string) []int {
	next := len(header) + 1
	cols := make([]int, len(resultColumns))
	for ci, name := range resultColumns {
		found := 0
		for hi, cell := range header {
			if strings.TrimSpace(cell) == name {
				found = hi + 1
				break
			}
		}
		if found == 0 {
			found = next
			next++
			cell, _ := excelize.CoordinatesToCellName(found, 1)
			_ = f.SetCellValue(sheet, cell, name)
		}
		cols[ci] = found
	}
	return cols
}

// writeRow fills the six result cells of one row.
func writeRow(f *excelize.File, sheet string, rowNum int, outCols []int, rec models.Record, status string) {
	values := []string{
		rec.ElectoralCenter,
		rec.District,
		rec.Address,
		rec.SubcommitteeNumber,
		rec.ElectoralListNumber,
		status,
	}
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(outCols[i], rowNum)
		_ = f.SetCellValue(sheet, cell, v)
	}
}
