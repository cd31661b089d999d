package sheets

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	in := "\ufeffContact No.,Name,DOB\n9876543210,Radha,10/01/1990\n,,\n98765,Gopal,\n"
	rows, err := Read(strings.NewReader(in), "members.CSV")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{"Contact No.": "9876543210", "Name": "Radha", "DOB": "10/01/1990"}, rows[0])
	assert.Equal(t, Row{"Contact No.": "98765", "Name": "Gopal"}, rows[1])
}

func TestReadCSV_Empty(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRead_Unsupported(t *testing.T) {
	_, err := Read(strings.NewReader("x"), "notes.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestReadXLSX_RawValues(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Receipt No.", "Amount", "Date"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"R-1", 500, 45301}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"R-2", 700, 45301}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	rows, err := Read(bytes.NewReader(buf.Bytes()), "donations.xlsx")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "R-1", rows[0]["Receipt No."])
	assert.Equal(t, "500", rows[0]["Amount"])
	assert.Equal(t, "45301", rows[1]["Date"])
}
