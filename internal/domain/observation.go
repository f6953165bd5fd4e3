package domain

import "strings"

// Column names of the historical fertilizer dataset
const (
	ColumnCommodity = "Commodity"
	ColumnProvince  = "Province"
	ColumnSoilPH    = "Soil_pH"
	ColumnTempC     = "Temp_C"
	ColumnUrea      = "Pupuk_Urea_kgHa"
	ColumnSP36      = "Pupuk_SP36_kgHa"
	ColumnKCl       = "Pupuk_KCl_kgHa"
)

// RequiredObservationColumns lists every column a reference table must carry
var RequiredObservationColumns = []string{
	ColumnCommodity,
	ColumnProvince,
	ColumnSoilPH,
	ColumnTempC,
	ColumnUrea,
	ColumnSP36,
	ColumnKCl,
}

// Observation is one historical farm record
type Observation struct {
	Commodity string         `json:"commodity"`
	Province  string         `json:"province"`
	SoilPH    float64        `json:"soilPh"`
	TempC     float64        `json:"tempC"`
	Dose      FertilizerDose `json:"dose"`
}

// FertilizerDose holds urea, SP-36 and KCl quantities.
// Units are kg/ha unless the owning type says otherwise.
type FertilizerDose struct {
	Urea float64 `json:"urea"`
	SP36 float64 `json:"sp36"`
	KCl  float64 `json:"kcl"`
}

// Scale multiplies every dose by factor (e.g. hectares)
func (d FertilizerDose) Scale(factor float64) FertilizerDose {
	return FertilizerDose{
		Urea: d.Urea * factor,
		SP36: d.SP36 * factor,
		KCl:  d.KCl * factor,
	}
}

// Dataset is a column-named record set as produced by a dataset loader.
// Cells are kept as strings; typing happens when the dataset is fitted.
type Dataset struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the position of the named column or -1
func (d *Dataset) ColumnIndex(name string) int {
	for i, col := range d.Columns {
		if strings.TrimSpace(col) == name {
			return i
		}
	}
	return -1
}

// Cell returns the trimmed value at row/col, or "" when the row is short
func (d *Dataset) Cell(row, col int) string {
	if row < 0 || row >= len(d.Rows) || col < 0 || col >= len(d.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(d.Rows[row][col])
}

// Len returns the number of data rows
func (d *Dataset) Len() int {
	return len(d.Rows)
}
