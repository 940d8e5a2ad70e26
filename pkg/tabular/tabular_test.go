package tabular_test

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/staffimport/pkg/tabular"
)

func TestDecodeCSV(t *testing.T) {
	payload := []byte("First Name,Last Name,Email\nJohn,Doe,john@acme.test\nJane,Smith,jane@acme.test\n")

	table, err := tabular.Decode("staff.csv", payload)
	require.NoError(t, err)
	require.Equal(t, []string{"first_name", "last_name", "email"}, table.Headers)
	require.Len(t, table.Rows, 2)
	require.Equal(t, []string{"John", "Doe", "john@acme.test"}, table.Rows[0])
}

func TestDecodeCSVStripsBOM(t *testing.T) {
	payload := append([]byte{0xEF, 0xBB, 0xBF}, []byte("email\na@b.test\n")...)

	table, err := tabular.Decode("staff.csv", payload)
	require.NoError(t, err)
	require.Equal(t, []string{"email"}, table.Headers)
}

func TestDecodeCSVPadsRaggedRows(t *testing.T) {
	payload := []byte("a,b,c\n1,2\n1,2,3,4\n")

	table, err := tabular.Decode("f.csv", payload)
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2", ""}, table.Rows[0])
	require.Equal(t, []string{"1", "2", "3"}, table.Rows[1])
}

func TestDecodeCSVSkipsEmptyRowsAndDedupesHeaders(t *testing.T) {
	payload := []byte("Email,Email,  \n\n , , \na@b.test,b@c.test,x\n")

	table, err := tabular.Decode("f.csv", payload)
	require.NoError(t, err)
	require.Equal(t, []string{"email", "email_2", "column_3"}, table.Headers)
	require.Len(t, table.Rows, 1)
}

func TestDecodeUnsupportedExtension(t *testing.T) {
	_, err := tabular.Decode("staff.pdf", []byte("x"))
	require.ErrorIs(t, err, tabular.ErrUnsupportedFormat)
}

func TestDecodeEmptyFile(t *testing.T) {
	_, err := tabular.Decode("staff.csv", []byte("\n\n"))
	require.ErrorIs(t, err, tabular.ErrEmptyFile)
}

func TestDecodeXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"First Name", "Email"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"John", "john@acme.test"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"Jane", "jane@acme.test"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	table, err := tabular.Decode("staff.xlsx", buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, []string{"first_name", "email"}, table.Headers)
	require.Len(t, table.Rows, 2)
	require.Equal(t, []string{"Jane", "jane@acme.test"}, table.Rows[1])
}

func TestDecodeXLSXCoercesDateCells(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"First Name", "Start Date", "End Date"}))
	require.NoError(t, f.SetCellValue(sheet, "A2", "John"))
	// a native date-time cell displays as e.g. "1/15/24 10:30"
	require.NoError(t, f.SetCellValue(sheet, "B2", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)))
	// a raw serial styled with a locale date format
	customFmt := "dd/mm/yyyy"
	styleID, err := f.NewStyle(&excelize.Style{CustomNumFmt: &customFmt})
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue(sheet, "C2", 45306.0))
	require.NoError(t, f.SetCellStyle(sheet, "C2", "C2", styleID))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	table, err := tabular.Decode("staff.xlsx", buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, []string{"John", "2024-01-15", "2024-01-15"}, table.Rows[0])
}

func TestDecodeXLSXBlanksErrorCells(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"First Name", "Phone"}))
	require.NoError(t, f.SetCellValue(sheet, "A2", "John"))
	require.NoError(t, f.SetCellValue(sheet, "B2", 424242))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	// rewrite B2 into a cached formula error, the shape Excel saves after
	// evaluating e.g. a division by zero
	payload := patchSheet(t, buf.Bytes(), `r="B2"`, `r="B2" t="e"`)
	payload = patchSheet(t, payload, "<v>424242</v>", "<v>#DIV/0!</v>")

	table, err := tabular.Decode("staff.xlsx", payload)
	require.NoError(t, err)
	require.Equal(t, []string{"John", ""}, table.Rows[0])
}

func patchSheet(t *testing.T, payload []byte, old, replacement string) []byte {
	t.Helper()

	r, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	require.NoError(t, err)

	var out bytes.Buffer
	w := zip.NewWriter(&out)
	patched := false
	for _, file := range r.File {
		rc, err := file.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())

		if file.Name == "xl/worksheets/sheet1.xml" && bytes.Contains(data, []byte(old)) {
			data = bytes.Replace(data, []byte(old), []byte(replacement), 1)
			patched = true
		}

		fw, err := w.Create(file.Name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.True(t, patched, "sheet xml did not contain %q", old)
	return out.Bytes()
}

func TestDecodeXLSXCorrupt(t *testing.T) {
	_, err := tabular.Decode("staff.xlsx", []byte("not a zip archive"))
	require.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := tabular.WriteCSV(&buf, []string{"row_number", "error"}, [][]string{
		{"2", "email is required"},
		{"5", "unknown department \"Ops\""},
	})
	require.NoError(t, err)
	require.Equal(t,
		"row_number,error\n2,email is required\n5,\"unknown department \"\"Ops\"\"\"\n",
		buf.String())
}
