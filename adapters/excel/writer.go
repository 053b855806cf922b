// Package excel exports analysis results to spreadsheet workbooks for
// hand-off to statistics tooling.
package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"neurosync/domain/run"
	"neurosync/domain/signal"
)

const (
	runSheet = "Run"
	plvSheet = "PLV"
)

// Writer renders PLV results into .xlsx workbooks.
type Writer struct{}

// NewWriter creates a new spreadsheet writer
func NewWriter() *Writer {
	return &Writer{}
}

// WritePLV streams a workbook with one metadata sheet and one wide PLV
// table: the time axis followed by a column per pair (plus bound columns
// when the run carried bootstrap intervals).
func (w *Writer) WritePLV(out io.Writer, ar *run.AnalysisRun, result *signal.PLVResult) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", runSheet)
	if err := w.writeRunSheet(f, ar, result); err != nil {
		return err
	}

	if _, err := f.NewSheet(plvSheet); err != nil {
		return fmt.Errorf("failed to create PLV sheet: %w", err)
	}
	if err := w.writePLVSheet(f, result); err != nil {
		return err
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (w *Writer) writeRunSheet(f *excelize.File, ar *run.AnalysisRun, result *signal.PLVResult) error {
	rows := [][]interface{}{
		{"run_id", ar.ID.String()},
		{"recording_id", ar.RecordingID.String()},
		{"band_hz", fmt.Sprintf("%g-%g", ar.Band.LowHz, ar.Band.HighHz)},
		{"filter_order", ar.Band.Order},
		{"window_ms", fmt.Sprintf("%g-%g", ar.Window.StartMs, ar.Window.EndMs)},
		{"bootstrap_reps", ar.BootstrapReps},
		{"seed", ar.Seed},
		{"fingerprint", ar.Fingerprint},
		{"status", string(ar.Status)},
		{"pairs", len(result.Pairs)},
		{"samples", len(result.TimeMs)},
		{"degenerate_warnings", len(result.Warnings)},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(runSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write run sheet: %w", err)
		}
	}
	return nil
}

func (w *Writer) writePLVSheet(f *excelize.File, result *signal.PLVResult) error {
	header := []interface{}{"time_ms"}
	for _, pair := range result.Pairs {
		name := fmt.Sprintf("%s-%s", pair.Pair.A, pair.Pair.B)
		header = append(header, name)
		if pair.Lower != nil {
			header = append(header, name+"_lower", name+"_upper")
		}
	}
	if err := f.SetSheetRow(plvSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := range result.TimeMs {
		row := []interface{}{result.TimeMs[i]}
		for _, pair := range result.Pairs {
			row = append(row, pair.Values[i])
			if pair.Lower != nil {
				row = append(row, pair.Lower[i], pair.Upper[i])
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(plvSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	return nil
}
