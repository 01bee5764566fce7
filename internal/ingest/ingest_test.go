package ingest

import (
	"path/filepath"
	"testing"

	shp "github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeTestShapefile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roads.shp")

	w, err := shp.Create(path, shp.POLYLINE)
	require.NoError(t, err)

	w.SetFields([]shp.Field{shp.StringField("USRN", 12)})

	w.Write(shp.NewPolyLine([][]shp.Point{{
		{X: 437292, Y: 115541}, {X: 437621, Y: 115771},
	}}))
	require.NoError(t, w.WriteAttribute(0, 0, "8100239"))

	w.Write(shp.NewPolyLine([][]shp.Point{{
		{X: 0, Y: 0}, {X: 10, Y: 10},
	}}))
	require.NoError(t, w.WriteAttribute(1, 0, "")) // no USRN, skipped

	w.Close()
	return path
}

func TestReadStreets(t *testing.T) {
	path := writeTestShapefile(t)

	streets, err := ReadStreets(path, "usrn")
	require.NoError(t, err)
	require.Len(t, streets, 1)
	assert.Equal(t, "8100239", streets[0].USRN)
	assert.Contains(t, streets[0].Geometry, "LINESTRING")
	assert.Contains(t, streets[0].Geometry, "437292")
}

func TestReadStreetsMissingField(t *testing.T) {
	path := writeTestShapefile(t)
	_, err := ReadStreets(path, "street_ref")
	assert.Error(t, err)
}

func writeTestRegister(t *testing.T, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "swa.xlsx")

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Register")
	require.NoError(t, err)
	for _, cells := range rows {
		row := sheet.AddRow()
		for _, c := range cells {
			row.AddCell().SetString(c)
		}
	}
	require.NoError(t, f.Save(path))
	return path
}

func TestReadSWACodes(t *testing.T) {
	path := writeTestRegister(t, [][]string{
		{"SWA Code", "Account Name", "Ofwat Licence", "Ofgem Licence (Electricity)", "Ofgem Licence (Gas)", "Ofcom Licence", "Highway Authority"},
		{"7181", "Southern Water", "Yes", "", "", "", ""},
		{"30", "Openreach", "", "", "", "Yes", ""},
		{"", "header padding row", "", "", "", "", ""},
	})

	codes, err := ReadSWACodes(path)
	require.NoError(t, err)
	require.Len(t, codes, 2)

	assert.Equal(t, "7181", codes[0].Code)
	assert.Equal(t, "Southern Water", codes[0].Name)
	assert.True(t, codes[0].OfwatLicence)
	assert.False(t, codes[0].OfcomLicence)

	assert.True(t, codes[1].OfcomLicence)
}

func TestReadSWACodesMissingColumns(t *testing.T) {
	path := writeTestRegister(t, [][]string{
		{"Something", "Else"},
		{"1", "2"},
	})
	_, err := ReadSWACodes(path)
	assert.Error(t, err)
}
