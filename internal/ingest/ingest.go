// Package ingest parses order exports into normalized Order records.
// It accepts the column-headered CSV produced by the order-export source
// and the equivalent XLSX workbook.
package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"invoicekit/internal/models"
)

// ParseError reports malformed export input. Row is 1-based and 0 when the
// failure is not tied to a specific row.
type ParseError struct {
	Row int
	Msg string
}

func (e *ParseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("order export row %d: %s", e.Row, e.Msg)
	}
	return fmt.Sprintf("order export: %s", e.Msg)
}

// Parse decodes raw export bytes into Order records, preserving source row
// order. The filename selects the decoder: .xlsx uses the workbook reader,
// everything else is treated as CSV. Pure transform, no side effects.
func Parse(data []byte, filename string) ([]*models.Order, error) {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		rows, err := xlsxRows(data)
		if err != nil {
			return nil, err
		}
		return parseRows(rows)
	}
	rows, err := csvRows(data)
	if err != nil {
		return nil, err
	}
	return parseRows(rows)
}

// Count returns the number of valid orders in raw export bytes.
func Count(data []byte, filename string) (int, error) {
	orders, err := Parse(data, filename)
	if err != nil {
		return 0, err
	}
	return len(orders), nil
}

func csvRows(data []byte) ([][]string, error) {
	// Strip a UTF-8 BOM; exports written on Windows usually carry one.
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &ParseError{Msg: fmt.Sprintf("malformed CSV: %v", err)}
	}
	return rows, nil
}

func xlsxRows(data []byte) ([][]string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Msg: fmt.Sprintf("malformed XLSX workbook: %v", err)}
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Msg: "XLSX workbook has no sheets"}
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Msg: fmt.Sprintf("reading sheet %q: %v", sheets[0], err)}
	}
	return rows, nil
}
