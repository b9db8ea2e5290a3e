package services_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/na4oman/samsung-shop/models"
	"github.com/na4oman/samsung-shop/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseProductFile_CSV(t *testing.T) {
	data := "Name *,Model,Category,Color,Part Number,Price,Notes\n" +
		"Galaxy S23 Screen, Galaxy S23 ,AMOLED,Black,SM-S911B,199.99,ignored\n" +
		",,,,,,\n" +
		"Galaxy S22 Screen,Galaxy S22,LCD,White,,cheap,\n"

	inputs, err := services.ParseProductFile(strings.NewReader(data), models.SourceCSV)
	require.NoError(t, err)
	require.Len(t, inputs, 2)

	first := inputs[0]
	assert.Equal(t, "Galaxy S23 Screen", first["name"])
	assert.Equal(t, "Galaxy S23", first["model"])
	assert.Equal(t, "SM-S911B", first["partNumber"])
	assert.Equal(t, 199.99, first["price"])
	assert.NotContains(t, first, "notes")

	second := inputs[1]
	assert.Equal(t, "cheap", second["price"])
	assert.Equal(t, "SM-S22-LCD-WHI", second["partNumber"])
}

func TestParseProductFile_HeaderAliases(t *testing.T) {
	for _, header := range []string{"partNumber", "part number", "PART_NUMBER", "sku", "partnumber *"} {
		data := "name," + header + "\nPanel,SM-1\n"
		inputs, err := services.ParseProductFile(strings.NewReader(data), models.SourceCSV)
		require.NoError(t, err, header)
		assert.Equal(t, "SM-1", inputs[0]["partNumber"], header)
	}
}

func TestParseProductFile_EmptyCellsOmitted(t *testing.T) {
	data := "name,model,description,image\nPanel,Galaxy A10,,\n"
	inputs, err := services.ParseProductFile(strings.NewReader(data), models.SourceCSV)
	require.NoError(t, err)

	assert.NotContains(t, inputs[0], "description")
	assert.NotContains(t, inputs[0], "image")
	// No category or color, so no part number is derived.
	assert.NotContains(t, inputs[0], "partNumber")
}

func TestParseProductFile_HeaderOnly(t *testing.T) {
	_, err := services.ParseProductFile(strings.NewReader("name,model\n"), models.SourceCSV)
	assert.ErrorIs(t, err, services.ErrNoRows)
}

func TestParseProductFile_JSONShapes(t *testing.T) {
	bare := `[{"name":"Panel","price":12.5}]`
	inputs, err := services.ParseProductFile(strings.NewReader(bare), models.SourceJSON)
	require.NoError(t, err)
	assert.Equal(t, 12.5, inputs[0]["price"])

	wrapped := `{"products":[{"name":"Panel"},{"name":"Other"}]}`
	inputs, err = services.ParseProductFile(strings.NewReader(wrapped), models.SourceJSON)
	require.NoError(t, err)
	assert.Len(t, inputs, 2)

	_, err = services.ParseProductFile(strings.NewReader(`{"products":[]}`), models.SourceJSON)
	assert.ErrorIs(t, err, services.ErrNoRows)

	_, err = services.ParseProductFile(strings.NewReader(`not json`), models.SourceJSON)
	assert.Error(t, err)
}

func TestParseProductFile_Unsupported(t *testing.T) {
	_, err := services.ParseProductFile(strings.NewReader("x"), models.ImportSource("pdf"))
	assert.ErrorIs(t, err, services.ErrUnsupportedFormat)
}

func TestSourceFromFilename(t *testing.T) {
	src, err := services.SourceFromFilename("catalog.XLSX")
	require.NoError(t, err)
	assert.Equal(t, models.SourceXLSX, src)

	src, err = services.SourceFromFilename("/tmp/catalog.csv")
	require.NoError(t, err)
	assert.Equal(t, models.SourceCSV, src)

	_, err = services.SourceFromFilename("catalog.xls")
	assert.ErrorIs(t, err, services.ErrUnsupportedFormat)
}

func TestDerivePartNumber(t *testing.T) {
	assert.Equal(t, "SM-S23-AMOLED-BLA", services.DerivePartNumber("Galaxy S23", "AMOLED", "Black"))
	assert.Equal(t, "SM-TAB-A8-TFT-GRA", services.DerivePartNumber("galaxy Tab A8", "TFT", "Gray"))
	assert.Equal(t, "SM-NOTE20-E-PAPER-RE", services.DerivePartNumber("Note20", "E-Paper", "re"))
}

func TestWriteTemplate_RoundTrips(t *testing.T) {
	for _, tc := range []struct {
		format string
		source models.ImportSource
	}{
		{"csv", models.SourceCSV},
		{"xlsx", models.SourceXLSX},
		{"json", models.SourceJSON},
	} {
		t.Run(tc.format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, services.WriteTemplate(&buf, tc.format))

			inputs, err := services.ParseProductFile(&buf, tc.source)
			require.NoError(t, err)
			require.Len(t, inputs, 2)

			for _, in := range inputs {
				res := services.ValidateProduct(in)
				assert.True(t, res.IsValid, "%v", res.Errors)
			}
			assert.Equal(t, "SM-S911B-AMOLED-BLK", inputs[0]["partNumber"])
			assert.Equal(t, 149.99, inputs[1]["price"])
		})
	}
}

func TestTemplateContentType(t *testing.T) {
	ct, name, err := services.TemplateContentType("csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", ct)
	assert.Equal(t, "products_import_template.csv", name)

	_, _, err = services.TemplateContentType("pdf")
	assert.ErrorIs(t, err, services.ErrUnsupportedFormat)
	assert.ErrorIs(t, services.WriteTemplate(&bytes.Buffer{}, "pdf"), services.ErrUnsupportedFormat)
}

func TestParseProductSheet_RowsKeepSourceLines(t *testing.T) {
	data := "name,model,category,color,price\n" +
		"Galaxy S23 Screen,Galaxy S23,AMOLED,Black,199.99\n" +
		"\n" +
		",,,,\n" +
		"Galaxy S22 Screen,Galaxy S22,LCD,White,cheap\n"

	parsed, err := services.ParseProductSheet(strings.NewReader(data), models.SourceCSV)
	require.NoError(t, err)
	require.Len(t, parsed.Inputs, 2)
	assert.Equal(t, []int{2, 5}, parsed.Rows)
}

func TestParseProductSheet_XLSXBlankRow(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Name", "Model", "Category", "Color", "Price"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Galaxy S23 Screen", "Galaxy S23", "AMOLED", "Black", 199.99}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]any{"Galaxy S22 Screen", "Galaxy S22", "LCD", "White", 149.99}))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	parsed, err := services.ParseProductSheet(&buf, models.SourceXLSX)
	require.NoError(t, err)
	require.Len(t, parsed.Inputs, 2)
	assert.Equal(t, []int{2, 4}, parsed.Rows)
}

func TestParseProductSheet_JSONHasNoRows(t *testing.T) {
	parsed, err := services.ParseProductSheet(strings.NewReader(`[{"name":"Panel"}]`), models.SourceJSON)
	require.NoError(t, err)
	assert.Len(t, parsed.Inputs, 1)
	assert.Nil(t, parsed.Rows)
}
