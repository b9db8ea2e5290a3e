package services

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/na4oman/samsung-shop/models"
	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format, expected .csv, .xlsx or .json")
	ErrNoRows            = errors.New("file must have a header row and at least one data row")
)

const templateSheet = "Products"

// headerAliases maps normalized column headers to candidate field names.
var headerAliases = map[string]string{
	"name":        models.FieldName,
	"model":       models.FieldModel,
	"category":    models.FieldCategory,
	"color":       models.FieldColor,
	"description": models.FieldDescription,
	"price":       models.FieldPrice,
	"image":       models.FieldImage,
	"partnumber":  models.FieldPartNumber,
	"part number": models.FieldPartNumber,
	"part_number": models.FieldPartNumber,
	"sku":         models.FieldPartNumber,
}

var requiredColumns = map[string]bool{
	models.FieldName:       true,
	models.FieldModel:      true,
	models.FieldCategory:   true,
	models.FieldColor:      true,
	models.FieldPartNumber: true,
	models.FieldPrice:      true,
}

var galaxyPrefix = regexp.MustCompile(`(?i)galaxy `)

// SourceFromFilename picks the import source from a file extension.
func SourceFromFilename(name string) (models.ImportSource, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return models.SourceCSV, nil
	case ".xlsx":
		return models.SourceXLSX, nil
	case ".json":
		return models.SourceJSON, nil
	}
	return "", ErrUnsupportedFormat
}

// ParsedFile holds the candidate rows of an uploaded file. Rows[i] is the
// 1-based sheet line Inputs[i] came from; it is nil for JSON documents.
type ParsedFile struct {
	Inputs []models.ProductInput
	Rows   []int
}

// ParseProductFile reads candidate rows from a CSV, XLSX or JSON document.
// Tabular rows are keyed by field name with empty cells omitted.
func ParseProductFile(r io.Reader, source models.ImportSource) ([]models.ProductInput, error) {
	parsed, err := ParseProductSheet(r, source)
	if err != nil {
		return nil, err
	}
	return parsed.Inputs, nil
}

// ParseProductSheet is ParseProductFile that also reports the source line of
// every row. Blank lines are skipped but still counted.
func ParseProductSheet(r io.Reader, source models.ImportSource) (*ParsedFile, error) {
	var (
		rows []sheetRow
		err  error
	)
	switch source {
	case models.SourceCSV:
		rows, err = readCSV(r)
	case models.SourceXLSX:
		rows, err = readXLSX(r)
	case models.SourceJSON:
		inputs, err := readJSON(r)
		if err != nil {
			return nil, err
		}
		return &ParsedFile{Inputs: inputs}, nil
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	parsed := rowsToInputs(rows)
	if len(parsed.Inputs) == 0 {
		return nil, ErrNoRows
	}
	return parsed, nil
}

// sheetRow is one non-empty record with its 1-based line in the source file.
type sheetRow struct {
	line  int
	cells []string
}

func readCSV(r io.Reader) ([]sheetRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []sheetRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, sheetRow{line: line, cells: record})
	}
}

func readXLSX(r io.Reader) ([]sheetRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}
	sheet := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, templateSheet) {
			sheet = name
			break
		}
	}

	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	rows := make([]sheetRow, 0, len(cells))
	for i, row := range cells {
		rows = append(rows, sheetRow{line: i + 1, cells: row})
	}
	return rows, nil
}

// readJSON accepts either a bare array of products or {"products": [...]}.
func readJSON(r io.Reader) ([]models.ProductInput, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON: %w", err)
	}

	var inputs []models.ProductInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		var wrapped struct {
			Products []models.ProductInput `json:"products"`
		}
		if err2 := json.Unmarshal(data, &wrapped); err2 != nil {
			return nil, fmt.Errorf("failed to decode JSON: %w", err)
		}
		inputs = wrapped.Products
	}
	if len(inputs) == 0 {
		return nil, ErrNoRows
	}
	return inputs, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimSpace(strings.TrimSuffix(h, "*"))
	return h
}

func rowsToInputs(rows []sheetRow) *ParsedFile {
	parsed := &ParsedFile{}
	if len(rows) < 2 {
		return parsed
	}
	header := rows[0].cells
	fields := make([]string, len(header))
	for i, h := range header {
		fields[i] = headerAliases[normalizeHeader(h)]
	}

	for _, row := range rows[1:] {
		in := models.ProductInput{}
		for i, cell := range row.cells {
			if i >= len(fields) || fields[i] == "" {
				continue
			}
			value := strings.TrimSpace(cell)
			if value == "" {
				continue
			}
			if fields[i] == models.FieldPrice {
				in[models.FieldPrice] = parsePrice(value)
				continue
			}
			in[fields[i]] = value
		}
		if len(in) == 0 {
			continue
		}
		fillPartNumber(in)
		parsed.Inputs = append(parsed.Inputs, in)
		parsed.Rows = append(parsed.Rows, row.line)
	}
	return parsed
}

// parsePrice returns a float when the cell is numeric and the raw text otherwise,
// so the validator can report the type error.
func parsePrice(value string) any {
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}

func fillPartNumber(in models.ProductInput) {
	if strings.TrimSpace(in.String(models.FieldPartNumber)) != "" {
		return
	}
	model, category, color := in.String(models.FieldModel), in.String(models.FieldCategory), in.String(models.FieldColor)
	if model == "" || category == "" || color == "" {
		return
	}
	in[models.FieldPartNumber] = DerivePartNumber(model, category, color)
}

// DerivePartNumber builds SM-<MODEL>-<CATEGORY>-<COL> for rows without a part number.
// "Galaxy " is dropped from the model and inner whitespace becomes a hyphen.
func DerivePartNumber(model, category, color string) string {
	modelCode := galaxyPrefix.ReplaceAllString(strings.TrimSpace(model), "")
	modelCode = strings.Join(strings.Fields(strings.ToUpper(modelCode)), "-")

	categoryCode := strings.Join(strings.Fields(strings.ToUpper(category)), "-")

	colorRunes := []rune(strings.TrimSpace(color))
	if len(colorRunes) > 3 {
		colorRunes = colorRunes[:3]
	}
	colorCode := strings.ToUpper(string(colorRunes))

	return fmt.Sprintf("SM-%s-%s-%s", modelCode, categoryCode, colorCode)
}

// SampleImportRows are the example rows shipped in every template.
func SampleImportRows() []models.ProductInput {
	return []models.ProductInput{
		{
			models.FieldName:        "Samsung Galaxy S23 AMOLED Display",
			models.FieldModel:       "Galaxy S23",
			models.FieldCategory:    "AMOLED",
			models.FieldColor:       "Black",
			models.FieldPartNumber:  "SM-S911B-AMOLED-BLK",
			models.FieldDescription: "Original replacement AMOLED display for Samsung Galaxy S23.",
			models.FieldPrice:       199.99,
			models.FieldImage:       "/placeholder.svg?height=400&width=400",
		},
		{
			models.FieldName:        "Samsung Galaxy S22 LCD Screen",
			models.FieldModel:       "Galaxy S22",
			models.FieldCategory:    "LCD",
			models.FieldColor:       "White",
			models.FieldPartNumber:  "SM-S901B-LCD-WHT",
			models.FieldDescription: "Replacement LCD screen for Samsung Galaxy S22.",
			models.FieldPrice:       149.99,
			models.FieldImage:       "",
		},
	}
}

func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// TemplateContentType returns the MIME type and file name for a template format.
func TemplateContentType(format string) (contentType, filename string, err error) {
	switch format {
	case "csv":
		return "text/csv", "products_import_template.csv", nil
	case "xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "products_import_template.xlsx", nil
	case "json":
		return "application/json", "products_import_template.json", nil
	}
	return "", "", ErrUnsupportedFormat
}

// WriteTemplate writes the import template (header plus sample rows) in the given format.
func WriteTemplate(w io.Writer, format string) error {
	switch format {
	case "csv":
		return writeCSVTemplate(w)
	case "xlsx":
		return writeXLSXTemplate(w)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"products": SampleImportRows()})
	}
	return ErrUnsupportedFormat
}

func writeCSVTemplate(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(models.ImportFields); err != nil {
		return err
	}
	for _, sample := range SampleImportRows() {
		record := make([]string, len(models.ImportFields))
		for i, field := range models.ImportFields {
			record[i] = cellText(sample[field])
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeXLSXTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"1428A0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	if err != nil {
		return err
	}

	for i, field := range models.ImportFields {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		header := field
		if requiredColumns[field] {
			header += " *"
		}
		if err := f.SetCellValue(templateSheet, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(templateSheet, cell, cell, headerStyle); err != nil {
			return err
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(templateSheet, col, col, 24); err != nil {
			return err
		}
	}

	for r, sample := range SampleImportRows() {
		for i, field := range models.ImportFields {
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			if err := f.SetCellValue(templateSheet, cell, sample[field]); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}
