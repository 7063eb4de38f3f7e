package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/vendora/vendora-backend/pkg/errors"
)

// Canonical bulk-update column keys. Uploaded files may use any alias from
// columnAliases; unrecognized columns are ignored.
const (
	colProductName   = "productName"
	colCurrentStock  = "currentStock"
	colSellingPrice  = "sellingPrice"
	colCostPrice     = "costPrice"
	colMinStockLevel = "minStockLevel"
	colMaxStockLevel = "maxStockLevel"
)

var columnAliases = map[string]string{
	"product name":    colProductName,
	"product_name":    colProductName,
	"product":         colProductName,
	"name":            colProductName,
	"current stock":   colCurrentStock,
	"current_stock":   colCurrentStock,
	"stock":           colCurrentStock,
	"qty":             colCurrentStock,
	"quantity":        colCurrentStock,
	"selling price":   colSellingPrice,
	"selling_price":   colSellingPrice,
	"price":           colSellingPrice,
	"cost price":      colCostPrice,
	"cost_price":      colCostPrice,
	"cost":            colCostPrice,
	"min stock level": colMinStockLevel,
	"min_stock_level": colMinStockLevel,
	"min stock":       colMinStockLevel,
	"max stock level": colMaxStockLevel,
	"max_stock_level": colMaxStockLevel,
	"max stock":       colMaxStockLevel,
}

// BulkRow is one normalized row from an uploaded bulk-update file. Numeric
// fields are nil when the cell is absent, blank or unparseable; a single bad
// cell never fails the row.
type BulkRow struct {
	RowNumber     int
	ProductName   string
	CurrentStock  *int
	SellingPrice  *decimal.Decimal
	CostPrice     *decimal.Decimal
	MinStockLevel *int
	MaxStockLevel *int
}

// ParseCSV reads bulk-update rows from a CSV stream. Structural problems
// (empty file, unreadable records, no recognized product-name column, too many
// rows) abort the whole upload.
func ParseCSV(r io.Reader, maxRows int) ([]BulkRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.BadRequest(fmt.Sprintf("malformed CSV file: %v", err))
	}

	return rowsFromRecords(records, maxRows)
}

// ParseXLSX reads bulk-update rows from the first sheet of an XLSX stream
func ParseXLSX(r io.Reader, maxRows int) ([]BulkRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.BadRequest(fmt.Sprintf("malformed Excel file: %v", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.BadRequest("Excel file has no sheets")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.BadRequest(fmt.Sprintf("failed to read Excel sheet: %v", err))
	}

	return rowsFromRecords(records, maxRows)
}

// rowsFromRecords maps raw records to BulkRows using the header row and the
// column-alias table. Row numbers are file row numbers, header included, so
// they match what the uploader sees in a spreadsheet.
func rowsFromRecords(records [][]string, maxRows int) ([]BulkRow, error) {
	if len(records) == 0 {
		return nil, errors.BadRequest("file is empty")
	}
	if len(records) == 1 {
		return nil, errors.BadRequest("file has a header but no data rows")
	}
	if maxRows > 0 && len(records)-1 > maxRows {
		return nil, errors.BadRequest(fmt.Sprintf("file has %d rows, the limit is %d", len(records)-1, maxRows))
	}

	columns := map[int]string{}
	for i, header := range records[0] {
		key := strings.ToLower(strings.TrimSpace(header))
		if canonical, ok := columnAliases[key]; ok {
			columns[i] = canonical
		}
	}

	hasName := false
	for _, canonical := range columns {
		if canonical == colProductName {
			hasName = true
			break
		}
	}
	if !hasName {
		return nil, errors.BadRequest("no product name column found in header")
	}

	rows := make([]BulkRow, 0, len(records)-1)
	for i, record := range records[1:] {
		row := BulkRow{RowNumber: i + 2}

		for col, canonical := range columns {
			if col >= len(record) {
				continue
			}
			value := strings.TrimSpace(record[col])
			if value == "" {
				continue
			}

			switch canonical {
			case colProductName:
				row.ProductName = value
			case colCurrentStock:
				row.CurrentStock = parseIntCell(value)
			case colSellingPrice:
				row.SellingPrice = parseDecimalCell(value)
			case colCostPrice:
				row.CostPrice = parseDecimalCell(value)
			case colMinStockLevel:
				row.MinStockLevel = parseIntCell(value)
			case colMaxStockLevel:
				row.MaxStockLevel = parseIntCell(value)
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}

func parseIntCell(value string) *int {
	n, err := strconv.Atoi(value)
	if err != nil {
		// Spreadsheets often render integers as "12.0"
		d, derr := decimal.NewFromString(value)
		if derr != nil || !d.IsInteger() {
			return nil
		}
		n = int(d.IntPart())
	}
	return &n
}

func parseDecimalCell(value string) *decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil
	}
	return &d
}

var bulkHeader = []string{"Product Name", "Current Stock", "Selling Price", "Cost Price", "Min Stock Level", "Max Stock Level"}

// WriteRollbackXLSX renders rollback records as an XLSX file in the bulk-update
// format. Fields the bulk run did not touch are left blank, so re-uploading the
// file restores exactly what was changed.
func WriteRollbackXLSX(records []RollbackRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	for i, h := range bulkHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for i, rec := range records {
		rowNum := i + 2
		setCell(f, sheet, 1, rowNum, rec.ProductName)
		if rec.CurrentStock != nil {
			setCell(f, sheet, 2, rowNum, *rec.CurrentStock)
		}
		if rec.SellingPrice != nil {
			setCell(f, sheet, 3, rowNum, rec.SellingPrice.String())
		}
		if rec.CostPrice != nil {
			setCell(f, sheet, 4, rowNum, rec.CostPrice.String())
		}
		if rec.MinStockLevel != nil {
			setCell(f, sheet, 5, rowNum, *rec.MinStockLevel)
		}
		if rec.MaxStockLevel != nil {
			setCell(f, sheet, 6, rowNum, *rec.MaxStockLevel)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTemplateXLSX renders the bulk-update template with sample rows
func WriteTemplateXLSX() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	for i, h := range bulkHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	samples := [][]interface{}{
		{"Red Apples", 120, "2.49", "1.80", 20, 200},
		{"Whole Milk 1L", 48, "1.15", "0.89", 12, 0},
		{"Rye Bread", 0, "3.20", "", 5, 40},
	}
	for i, sample := range samples {
		for j, value := range sample {
			if value == "" {
				continue
			}
			setCell(f, sheet, j+1, i+2, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, sheet string, col, row int, value interface{}) {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	_ = f.SetCellValue(sheet, cell, value)
}
