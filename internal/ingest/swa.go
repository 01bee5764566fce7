package ingest

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/usrn-labs/streetwise/internal/store"
)

// swaColumns maps register header names (normalised) to SWACode fields.
// GeoPlace has renamed headers between register editions, so several aliases
// map to the same column.
var swaColumns = map[string]string{
	"swacode":                 "code",
	"code":                    "code",
	"accountname":             "name",
	"name":                    "name",
	"ofwatlicence":            "ofwat",
	"ofgemlicenceelectricity": "ofgem_electric",
	"ofgemelectricity":        "ofgem_electric",
	"ofgemlicencegas":         "ofgem_gas",
	"ofgemgas":                "ofgem_gas",
	"ofcomlicence":            "ofcom",
	"highwayauthority":        "highway",
}

// ReadSWACodes parses the GeoPlace SWA code register from its XLSX
// distribution. Column positions are taken from the header row, not assumed.
func ReadSWACodes(path string) ([]store.SWACode, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open register %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("ingest: register %s has no sheets", path)
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) < 2 {
		return nil, eris.Errorf("ingest: register %s has no data rows", path)
	}

	columns := make(map[string]int)
	for i, cell := range sheet.Rows[0].Cells {
		if field, ok := swaColumns[headerKey(cell.String())]; ok {
			if _, taken := columns[field]; !taken {
				columns[field] = i
			}
		}
	}
	if _, ok := columns["code"]; !ok {
		return nil, eris.Errorf("ingest: register %s has no SWA code column", path)
	}
	if _, ok := columns["name"]; !ok {
		return nil, eris.Errorf("ingest: register %s has no account name column", path)
	}

	var codes []store.SWACode
	for _, row := range sheet.Rows[1:] {
		get := func(field string) string {
			idx, ok := columns[field]
			if !ok || idx >= len(row.Cells) {
				return ""
			}
			return strings.TrimSpace(row.Cells[idx].String())
		}

		code := get("code")
		if code == "" {
			continue
		}
		codes = append(codes, store.SWACode{
			Code:          code,
			Name:          get("name"),
			OfwatLicence:  flag(get("ofwat")),
			OfgemElectric: flag(get("ofgem_electric")),
			OfgemGas:      flag(get("ofgem_gas")),
			OfcomLicence:  flag(get("ofcom")),
			HighwayAuth:   flag(get("highway")),
		})
	}
	return codes, nil
}

func headerKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// flag interprets the register's yes/no style cells.
func flag(s string) bool {
	switch strings.ToLower(s) {
	case "", "no", "n", "false", "0":
		return false
	default:
		return true
	}
}
