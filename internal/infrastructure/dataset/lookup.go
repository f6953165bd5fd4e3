package dataset

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tumbuh/backend/internal/domain"
)

// Lookup table columns
const (
	ColProvince    = "Province"
	ColDistrict    = "District"
	ColCommodity   = "Commodity"
	ColRain        = "Rain_mm"
	ColTemp        = "Temp_C"
	ColHumidity    = "Humidity_pct"
	ColSoilPH      = "Soil_pH"
	ColSoilN       = "Soil_N_index"
	ColSoilP       = "Soil_P_index"
	ColSoilK       = "Soil_K_index"
	ColPriceUrea   = "InputPrice_Urea_RpKg"
	ColPriceSP36   = "InputPrice_SP36_RpKg"
	ColPriceKCl    = "InputPrice_KCl_RpKg"
	ColProfileYear = "Year"
)

// RequiredLookupColumns must be present in a lookup table
var RequiredLookupColumns = []string{
	ColProvince, ColDistrict, ColCommodity,
	ColRain, ColTemp, ColHumidity,
	ColSoilPH, ColSoilN, ColSoilP, ColSoilK,
}

// LookupTable is an in-memory reference table of agronomic profiles.
// It is read-only after construction and safe for concurrent use.
type LookupTable struct {
	profiles map[domain.Location]domain.AgronomicProfile
	tree     map[string]map[string][]string // province -> district -> commodities
}

// titleCase trims s and capitalises every run of letters, so any non-letter
// starts a new word: "d.i. yogyakarta" becomes "D.I. Yogyakarta". Inner
// whitespace is kept as is. cases.Caser is stateful, so a fresh one is made
// per call.
func titleCase(s string) string {
	s = strings.TrimSpace(s)
	caser := cases.Title(language.Indonesian)

	var b strings.Builder
	b.Grow(len(s))
	start := -1
	for i, r := range s {
		if unicode.IsLetter(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			b.WriteString(caser.String(s[start:i]))
			start = -1
		}
		b.WriteRune(r)
	}
	if start >= 0 {
		b.WriteString(caser.String(s[start:]))
	}
	return b.String()
}

// NormalizeLocation trims and title-cases the names of a location the same
// way the lookup table stores them
func NormalizeLocation(loc domain.Location) domain.Location {
	return domain.Location{
		Province:  titleCase(loc.Province),
		District:  titleCase(loc.District),
		Commodity: titleCase(loc.Commodity),
	}
}

// LoadLookup reads a lookup table file in any supported format
func LoadLookup(path string, opts Options) (*LookupTable, error) {
	if opts.Table == "" {
		opts.Table = "lookup"
	}
	ds, err := Load(path, opts)
	if err != nil {
		return nil, err
	}
	return NewLookupTable(ds)
}

// NewLookupTable builds a lookup table from a dataset. The first row for a
// location wins when a location repeats.
func NewLookupTable(ds *domain.Dataset) (*LookupTable, error) {
	if ds == nil {
		ds = &domain.Dataset{}
	}

	idx := make(map[string]int)
	var missing []string
	for _, col := range RequiredLookupColumns {
		i := ds.ColumnIndex(col)
		if i < 0 {
			missing = append(missing, col)
		}
		idx[col] = i
	}
	if len(missing) > 0 {
		return nil, &domain.SchemaError{MissingColumns: missing}
	}
	for _, col := range []string{ColPriceUrea, ColPriceSP36, ColPriceKCl, ColProfileYear} {
		idx[col] = ds.ColumnIndex(col)
	}

	t := &LookupTable{
		profiles: make(map[domain.Location]domain.AgronomicProfile, ds.Len()),
		tree:     make(map[string]map[string][]string),
	}

	for r := 0; r < ds.Len(); r++ {
		loc := NormalizeLocation(domain.Location{
			Province:  ds.Cell(r, idx[ColProvince]),
			District:  ds.Cell(r, idx[ColDistrict]),
			Commodity: ds.Cell(r, idx[ColCommodity]),
		})
		for _, c := range [...]struct{ col, name string }{
			{ColProvince, loc.Province},
			{ColDistrict, loc.District},
			{ColCommodity, loc.Commodity},
		} {
			if c.name == "" {
				return nil, &domain.SchemaError{Row: r + 1, Column: c.col, Reason: "missing value"}
			}
		}

		number := func(col string, fallback float64, required bool) (float64, error) {
			raw := ds.Cell(r, idx[col])
			if raw == "" {
				if required {
					return 0, &domain.SchemaError{Row: r + 1, Column: col, Reason: "missing value"}
				}
				return fallback, nil
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, &domain.SchemaError{Row: r + 1, Column: col, Value: raw, Reason: "not a number"}
			}
			return v, nil
		}

		p := domain.AgronomicProfile{Location: loc}
		fields := []struct {
			col      string
			dst      *float64
			fallback float64
			required bool
		}{
			{ColRain, &p.RainMM, 0, true},
			{ColTemp, &p.TempC, 0, true},
			{ColHumidity, &p.HumidityPct, 0, true},
			{ColSoilPH, &p.SoilPH, 0, true},
			{ColSoilN, &p.SoilNIndex, 0, true},
			{ColSoilP, &p.SoilPIndex, 0, true},
			{ColSoilK, &p.SoilKIndex, 0, true},
			{ColPriceUrea, &p.PriceUreaRpKg, domain.DefaultPriceUreaRpKg, false},
			{ColPriceSP36, &p.PriceSP36RpKg, domain.DefaultPriceSP36RpKg, false},
			{ColPriceKCl, &p.PriceKClRpKg, domain.DefaultPriceKClRpKg, false},
		}
		for _, f := range fields {
			v, err := number(f.col, f.fallback, f.required)
			if err != nil {
				return nil, err
			}
			*f.dst = v
		}
		year, err := number(ColProfileYear, domain.DefaultProfileYear, false)
		if err != nil {
			return nil, err
		}
		p.Year = int(year)

		if _, dup := t.profiles[loc]; dup {
			continue
		}
		t.profiles[loc] = p

		districts, ok := t.tree[loc.Province]
		if !ok {
			districts = make(map[string][]string)
			t.tree[loc.Province] = districts
		}
		districts[loc.District] = append(districts[loc.District], loc.Commodity)
	}

	return t, nil
}

// Len returns the number of distinct locations
func (t *LookupTable) Len() int {
	return len(t.profiles)
}

// Provinces returns the sorted province names
func (t *LookupTable) Provinces() []string {
	out := make([]string, 0, len(t.tree))
	for p := range t.tree {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Districts returns the sorted districts of a province
func (t *LookupTable) Districts(province string) []string {
	districts := t.tree[titleCase(province)]
	out := make([]string, 0, len(districts))
	for d := range districts {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

// Commodities returns the sorted commodities of a district
func (t *LookupTable) Commodities(province, district string) []string {
	out := append([]string{}, t.tree[titleCase(province)][titleCase(district)]...)
	slices.Sort(out)
	return out
}

// Find returns the profile of a location, matching names case-insensitively
func (t *LookupTable) Find(loc domain.Location) (*domain.AgronomicProfile, error) {
	p, ok := t.profiles[NormalizeLocation(loc)]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return &p, nil
}
