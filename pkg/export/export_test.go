package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Unit Test 1 - DBMS",
		Headers: []string{"Roll", "Student", "Marks", "Grade"},
		Rows: []map[string]string{
			{"Roll": "01", "Student": "Asha", "Marks": "45", "Grade": "U"},
			{"Roll": "02", "Student": "Ravi, K", "Marks": "92", "Grade": "O"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Roll,Student,Marks,Grade\n01,Asha,45,U\n02,\"Ravi, K\",92,O\n", string(out))
}

func TestExportersRequireHeaders(t *testing.T) {
	reg := NewRegistry("Dept")
	for _, format := range []Format{FormatCSV, FormatPDF, FormatXLSX} {
		_, err := reg.Render(format, Dataset{})
		assert.Error(t, err, format)
	}
	_, err := reg.Render(Format("doc"), sampleDataset())
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter("CSE Department").Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(sheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Unit Test 1 - DBMS", title)
	student, err := f.GetCellValue(sheetName, "B4")
	require.NoError(t, err)
	assert.Equal(t, "Ravi, K", student)
	marks, err := f.GetCellValue(sheetName, "C3")
	require.NoError(t, err)
	assert.Equal(t, "45", marks)
}

func TestFormatContentType(t *testing.T) {
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
	assert.True(t, FormatXLSX.Valid())
	assert.False(t, Format("txt").Valid())
}
