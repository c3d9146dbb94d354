// Package report serializes a comparison result into a multi-sheet Excel
// workbook, highlighting the per-database value columns on the differing
// columns sheet.
package report

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/agustin/oracle_ddl_compare/pkg/compare"
	"github.com/agustin/oracle_ddl_compare/pkg/config"
	"github.com/agustin/oracle_ddl_compare/pkg/schema"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the output workbook.
const (
	SheetDiff      = "DiffColumns"
	SheetOnlyInDB1 = "OnlyInDB1"
	SheetOnlyInDB2 = "OnlyInDB2"
)

// defaultFileName is used when the configured result path is empty or the
// DEFAULT sentinel.
const defaultFileName = "ddl_compare_result.xlsx"

// highlightColor is the solid fill applied to per-database value columns on
// the diff sheet.
const highlightColor = "FFFF00"

// ResolvePath turns the configured result path into the path the workbook is
// written to. An empty path or the DEFAULT sentinel selects an auto-generated
// file in the working directory, and a missing .xlsx extension is appended.
func ResolvePath(configured string) (string, error) {
	path := configured
	if path == "" || path == config.PathDefault {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("error resolving working directory: %w", err)
		}
		path = filepath.Join(cwd, defaultFileName)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	return path, nil
}

// Writer writes comparison results to disk.
type Writer struct {
	log *slog.Logger
}

// NewWriter creates a Writer with the given logger.
func NewWriter(log *slog.Logger) *Writer {
	return &Writer{log: log}
}

// Write creates the workbook at path with the three result sheets. On the
// diff sheet every non-empty cell in a column carrying a database suffix is
// filled yellow — all compared cells in those columns, not only the ones
// that actually differ per row. Write failures are logged and returned.
func (w *Writer) Write(res compare.Result, path string) error {
	w.log.Info("writing comparison results", "path", path)

	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeDiffSheet(f, res.Diff); err != nil {
		w.log.Error("error writing workbook", "path", path, "error", err)
		return err
	}
	if err := writeSnapshotSheet(f, SheetOnlyInDB1, res.OnlyInDB1); err != nil {
		w.log.Error("error writing workbook", "path", path, "error", err)
		return err
	}
	if err := writeSnapshotSheet(f, SheetOnlyInDB2, res.OnlyInDB2); err != nil {
		w.log.Error("error writing workbook", "path", path, "error", err)
		return err
	}

	if err := f.SaveAs(path); err != nil {
		w.log.Error("error saving workbook", "path", path, "error", err)
		return fmt.Errorf("error saving workbook to %s: %w", path, err)
	}

	w.log.Info("comparison results written", "path", path,
		"diff", len(res.Diff), "only_db1", len(res.OnlyInDB1), "only_db2", len(res.OnlyInDB2))
	return nil
}

// diffHeader lists the diff sheet's columns: the join key first, then both
// sides' attributes qualified with their database suffix.
func diffHeader() []string {
	header := []string{"table_name", "column_name"}
	for _, suffix := range []string{compare.SuffixDB1, compare.SuffixDB2} {
		for _, attr := range []string{"owner", "data_type", "data_length", "data_precision", "data_scale", "nullable"} {
			header = append(header, attr+suffix)
		}
	}
	return header
}

// writeDiffSheet writes the differing-columns sheet and applies the highlight
// to the suffixed columns.
func (w *Writer) writeDiffSheet(f *excelize.File, diff []compare.DiffRow) error {
	// excelize starts every workbook with a default sheet; rename it so
	// DiffColumns is the first sheet.
	if err := f.SetSheetName(f.GetSheetName(0), SheetDiff); err != nil {
		return fmt.Errorf("error creating sheet %s: %w", SheetDiff, err)
	}

	header := diffHeader()
	if err := setRow(f, SheetDiff, 1, stringsToValues(header)); err != nil {
		return err
	}

	for i, row := range diff {
		values := []interface{}{row.TableName, row.ColumnName}
		values = append(values, recordValues(row.DB1)...)
		values = append(values, recordValues(row.DB2)...)
		if err := setRow(f, SheetDiff, i+2, values); err != nil {
			return err
		}
	}

	return w.highlightSuffixedColumns(f, header, len(diff))
}

// highlightSuffixedColumns fills every non-empty data cell of the suffixed
// columns on the diff sheet.
func (w *Writer) highlightSuffixedColumns(f *excelize.File, header []string, dataRows int) error {
	if dataRows == 0 {
		return nil
	}

	styleID, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{highlightColor}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("error creating highlight style: %w", err)
	}

	for col, name := range header {
		if !strings.HasSuffix(name, compare.SuffixDB1) && !strings.HasSuffix(name, compare.SuffixDB2) {
			continue
		}
		for row := 2; row <= dataRows+1; row++ {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("error resolving cell name: %w", err)
			}
			value, err := f.GetCellValue(SheetDiff, cell)
			if err != nil {
				return fmt.Errorf("error reading cell %s: %w", cell, err)
			}
			if value == "" {
				continue
			}
			if err := f.SetCellStyle(SheetDiff, cell, cell, styleID); err != nil {
				return fmt.Errorf("error highlighting cell %s: %w", cell, err)
			}
		}
	}
	return nil
}

// writeSnapshotSheet writes one of the OnlyIn sheets: plain column records,
// no highlighting.
func writeSnapshotSheet(f *excelize.File, sheet string, snap schema.Snapshot) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("error creating sheet %s: %w", sheet, err)
	}

	header := []string{"owner", "table_name", "column_name", "data_type", "data_length", "data_precision", "data_scale", "nullable"}
	if err := setRow(f, sheet, 1, stringsToValues(header)); err != nil {
		return err
	}

	for i, rec := range snap {
		values := append([]interface{}{rec.Owner, rec.TableName, rec.ColumnName}, attrValues(rec)...)
		if err := setRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

// recordValues renders one side of a diff row in diffHeader's attribute
// order.
func recordValues(rec schema.ColumnRecord) []interface{} {
	return append([]interface{}{rec.Owner}, attrValues(rec)...)
}

// attrValues renders a record's compared attributes, mapping null numeric
// values to empty cells.
func attrValues(rec schema.ColumnRecord) []interface{} {
	return []interface{}{
		rec.DataType,
		nullableInt(rec.DataLength),
		nullableInt(rec.DataPrecision),
		nullableInt(rec.DataScale),
		rec.Nullable,
	}
}

// nullableInt maps a null database integer to a nil cell value.
func nullableInt(v sql.NullInt64) interface{} {
	if !v.Valid {
		return nil
	}
	return v.Int64
}

// setRow writes one row of values starting at column A.
func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("error resolving cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("error writing row %d of %s: %w", row, sheet, err)
	}
	return nil
}

// stringsToValues converts a header row for SetSheetRow.
func stringsToValues(ss []string) []interface{} {
	values := make([]interface{}, len(ss))
	for i, s := range ss {
		values[i] = s
	}
	return values
}
