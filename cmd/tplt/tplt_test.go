package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Simplici0/tplt/internal/tabular"
)

const (
	masterCSV  = "品名,材料費,外注費用,売上単価\nWidget,300,200,1000\nGadget,10,0,50\n"
	recordsCSV = "productName,quantity,unitPrice,materialCost,outsourcingCost,startDate,endDate\n" +
		"Widget,1,,,,2024-01-01,2024-01-11\n" +
		"Gadget,4,,,,2024-01-01,2024-01-01\n" +
		"Widget,1,,,,2024-01-11,2024-01-01\n" +
		"Mystery,1,100,,,2024-01-01,2024-01-02\n"
)

func writeInputs(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	m := filepath.Join(dir, "master.csv")
	r := filepath.Join(dir, "records.csv")
	require.NoError(t, os.WriteFile(m, []byte(masterCSV), 0o600))
	require.NoError(t, os.WriteFile(r, []byte(recordsCSV), 0o600))
	return m, r
}

func TestComputeWritesExports(t *testing.T) {
	m, r := writeInputs(t)
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "out.csv")
	xlsxPath := filepath.Join(dir, "out.xlsx")

	var out bytes.Buffer
	cmd := &ComputeCmd{inputFlags: inputFlags{Master: m, Records: r}, CSV: csvPath, XLSX: xlsxPath}
	require.NoError(t, cmd.Run(&context{out: &out, logger: zap.NewNop()}))

	text := out.String()
	assert.Contains(t, text, "rejected: line 4")
	assert.Contains(t, text, "warning: Mystery is not in the product master")
	assert.Contains(t, text, "wrote "+csvPath)

	table, err := tabular.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 3)
	assert.Equal(t, "productName", table.Header[0])

	f, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"records", "summary"}, f.GetSheetList())
}

func TestComputeStrictFailsOnRejectedRows(t *testing.T) {
	m, r := writeInputs(t)

	cmd := &ComputeCmd{inputFlags: inputFlags{Master: m, Records: r, Strict: true}}
	err := cmd.Run(&context{out: &bytes.Buffer{}, logger: zap.NewNop()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 rows rejected")
}

func TestSummaryPrintsProductsByTPLT(t *testing.T) {
	m, r := writeInputs(t)

	var out bytes.Buffer
	cmd := &SummaryCmd{inputFlags: inputFlags{Master: m, Records: r}}
	require.NoError(t, cmd.Run(&context{out: &out, logger: zap.NewNop()}))

	text := out.String()
	assert.Contains(t, text, "records: 3  products: 3")

	table := text[strings.Index(text, "mean TP/unit"):]
	gadget := strings.Index(table, "Gadget")
	mystery := strings.Index(table, "Mystery")
	widget := strings.Index(table, "Widget")
	require.True(t, widget >= 0 && gadget >= 0 && mystery >= 0, text)
	assert.Less(t, gadget, mystery, "Gadget (TP/LT 160) ranks above Mystery (100)")
	assert.Less(t, mystery, widget, "Mystery (100) ranks above Widget (50)")
}

func TestMissingRecordFileColumns(t *testing.T) {
	dir := t.TempDir()
	r := filepath.Join(dir, "records.csv")
	require.NoError(t, os.WriteFile(r, []byte("productName,quantity\nWidget,1\n"), 0o600))

	cmd := &SummaryCmd{inputFlags: inputFlags{Records: r}}
	err := cmd.Run(&context{out: &bytes.Buffer{}, logger: zap.NewNop()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error importing records")
	assert.Contains(t, err.Error(), "expected columns")
}
