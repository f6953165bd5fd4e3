package usecase

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"sync"
	"testing"

	"github.com/tumbuh/backend/internal/domain"
)

// obsRow is one historical record in test tables
type obsRow struct {
	commodity, province string
	ph, temp            float64
	urea, sp36, kcl     float64
}

func newObservationDataset(rows ...obsRow) *domain.Dataset {
	ds := &domain.Dataset{Columns: append([]string(nil), domain.RequiredObservationColumns...)}
	for _, r := range rows {
		ds.Rows = append(ds.Rows, []string{
			r.commodity, r.province,
			fmt.Sprint(r.ph), fmt.Sprint(r.temp),
			fmt.Sprint(r.urea), fmt.Sprint(r.sp36), fmt.Sprint(r.kcl),
		})
	}
	return ds
}

func fittedRecommender(t *testing.T, rows ...obsRow) *Recommender {
	t.Helper()
	r := NewRecommender()
	if err := r.Fit(newObservationDataset(rows...)); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	return r
}

func TestRecommender_NotFitted(t *testing.T) {
	r := NewRecommender()

	if r.Fitted() {
		t.Error("Fitted() = true for a new recommender")
	}

	_, err := r.Recommend("Rice", "Java", 6.2, 26.5)
	if !errors.Is(err, domain.ErrNotFitted) {
		t.Errorf("error = %v, want ErrNotFitted", err)
	}
}

func TestRecommender_Fit(t *testing.T) {
	t.Run("rejects missing columns and names them", func(t *testing.T) {
		r := NewRecommender()
		ds := &domain.Dataset{
			Columns: []string{"Commodity", "Province", "Soil_pH", "Pupuk_Urea_kgHa"},
			Rows:    [][]string{{"Rice", "Java", "6.0", "200"}},
		}

		err := r.Fit(ds)

		var schemaErr *domain.SchemaError
		if !errors.As(err, &schemaErr) {
			t.Fatalf("error = %v, want *SchemaError", err)
		}
		want := []string{"Temp_C", "Pupuk_SP36_kgHa", "Pupuk_KCl_kgHa"}
		if !reflect.DeepEqual(schemaErr.MissingColumns, want) {
			t.Errorf("MissingColumns = %v, want %v", schemaErr.MissingColumns, want)
		}
		if r.Fitted() {
			t.Error("Fitted() = true after failed fit")
		}
	})

	t.Run("rejects nil dataset", func(t *testing.T) {
		err := NewRecommender().Fit(nil)
		if !domain.IsSchemaError(err) {
			t.Errorf("error = %v, want SchemaError", err)
		}
	})

	t.Run("rejects empty required cell", func(t *testing.T) {
		ds := newObservationDataset(
			obsRow{"Rice", "Java", 6.0, 26, 200, 100, 50},
			obsRow{"Rice", "Java", 6.1, 26, 210, 100, 50},
		)
		ds.Rows[1][5] = " "

		err := NewRecommender().Fit(ds)

		var schemaErr *domain.SchemaError
		if !errors.As(err, &schemaErr) {
			t.Fatalf("error = %v, want *SchemaError", err)
		}
		if schemaErr.Row != 2 || schemaErr.Column != domain.ColumnSP36 {
			t.Errorf("SchemaError at row %d column %s, want row 2 column %s", schemaErr.Row, schemaErr.Column, domain.ColumnSP36)
		}
	})

	t.Run("rejects short row", func(t *testing.T) {
		ds := newObservationDataset(obsRow{"Rice", "Java", 6.0, 26, 200, 100, 50})
		ds.Rows[0] = ds.Rows[0][:4]

		if err := NewRecommender().Fit(ds); !domain.IsSchemaError(err) {
			t.Errorf("error = %v, want SchemaError", err)
		}
	})

	t.Run("rejects non-numeric and NaN values", func(t *testing.T) {
		for _, bad := range []string{"abc", "NaN", "Inf"} {
			ds := newObservationDataset(obsRow{"Rice", "Java", 6.0, 26, 200, 100, 50})
			ds.Rows[0][2] = bad

			err := NewRecommender().Fit(ds)

			var schemaErr *domain.SchemaError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("value %q: error = %v, want *SchemaError", bad, err)
			}
			if schemaErr.Reason != "not a number" || schemaErr.Value != bad {
				t.Errorf("value %q: got reason %q value %q", bad, schemaErr.Reason, schemaErr.Value)
			}
		}
	})

	t.Run("ignores extra columns and column order", func(t *testing.T) {
		ds := &domain.Dataset{
			Columns: []string{"Pupuk_KCl_kgHa", "District", "Temp_C", "Province", "Soil_pH", "Commodity", "Pupuk_SP36_kgHa", "Pupuk_Urea_kgHa", "Year"},
			Rows: [][]string{
				{"60", "Bogor", "26", "Java", "6.0", "Rice", "110", "200", "2023"},
			},
		}
		r := NewRecommender()
		if err := r.Fit(ds); err != nil {
			t.Fatalf("Fit() error = %v", err)
		}

		got, err := r.Recommend("Rice", "Java", 6.0, 26)
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		want := domain.FertilizerDose{Urea: 200, SP36: 110, KCl: 60}
		if *got.Dose != want {
			t.Errorf("Dose = %+v, want %+v", *got.Dose, want)
		}
	})

	t.Run("refit replaces the table", func(t *testing.T) {
		r := fittedRecommender(t, obsRow{"Rice", "Java", 6.0, 26, 200, 100, 50})
		if err := r.Fit(newObservationDataset(obsRow{"Corn", "Bali", 6.0, 26, 150, 80, 40})); err != nil {
			t.Fatalf("Fit() error = %v", err)
		}

		old, _ := r.Recommend("Rice", "Java", 6.0, 26)
		if old.OK() {
			t.Error("old table still answers after refit")
		}
		if r.Size() != 1 {
			t.Errorf("Size() = %d, want 1", r.Size())
		}
	})

	t.Run("failed refit keeps previous table", func(t *testing.T) {
		r := fittedRecommender(t, obsRow{"Rice", "Java", 6.0, 26, 200, 100, 50})
		if err := r.Fit(&domain.Dataset{Columns: []string{"Commodity"}}); err == nil {
			t.Fatal("Fit() error = nil, want SchemaError")
		}

		got, err := r.Recommend("Rice", "Java", 6.0, 26)
		if err != nil || !got.OK() {
			t.Errorf("Recommend() = %+v, %v; want success from previous table", got, err)
		}
	})

	t.Run("empty dataset with valid header fits", func(t *testing.T) {
		r := fittedRecommender(t)
		got, err := r.Recommend("Rice", "Java", 6.0, 26)
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if got.OK() {
			t.Error("expected error result from empty table")
		}
	})
}

func TestRecommender_Recommend(t *testing.T) {
	t.Run("two close rows give the midpoint median", func(t *testing.T) {
		r := fittedRecommender(t,
			obsRow{"Rice", "Java", 6.0, 26, 200, 100, 50},
			obsRow{"Rice", "Java", 6.4, 27, 220, 120, 70},
		)

		got, err := r.Recommend("Rice", "Java", 6.2, 26.5)
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if !got.OK() {
			t.Fatalf("Status = %s, want success", got.Status)
		}
		if got.Dose.Urea != 210 {
			t.Errorf("Urea = %v, want 210", got.Dose.Urea)
		}
		if got.Dose.SP36 != 110 || got.Dose.KCl != 60 {
			t.Errorf("SP36/KCl = %v/%v, want 110/60", got.Dose.SP36, got.Dose.KCl)
		}
		if got.MatchedCount != 2 {
			t.Errorf("MatchedCount = %d, want 2", got.MatchedCount)
		}
		if got.MatchQuality != domain.MatchQualityHigh {
			t.Errorf("MatchQuality = %s, want high", got.MatchQuality)
		}
		if got.Basis != "closely matching data" {
			t.Errorf("Basis = %q", got.Basis)
		}
	})

	t.Run("unknown pair returns error result", func(t *testing.T) {
		r := fittedRecommender(t, obsRow{"Rice", "Java", 6.0, 26, 200, 100, 50})

		got, err := r.Recommend("Corn", "Java", 6.0, 26)
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if got.Status != domain.RecommendationError {
			t.Errorf("Status = %s, want error", got.Status)
		}
		if got.Reason != "no historical data for this commodity/province pair" {
			t.Errorf("Reason = %q", got.Reason)
		}
		if got.Dose != nil || got.MatchedCount != 0 {
			t.Errorf("error result carries aggregation: %+v", got)
		}
		if !errors.Is(got.Err(), domain.ErrNoHistoricalData) {
			t.Errorf("Err() = %v, want ErrNoHistoricalData", got.Err())
		}
	})

	t.Run("matching is case-sensitive", func(t *testing.T) {
		r := fittedRecommender(t, obsRow{"Rice", "Java", 6.0, 26, 200, 100, 50})

		got, _ := r.Recommend("rice", "Java", 6.0, 26)
		if got.OK() {
			t.Error("lowercase commodity matched")
		}
		got, _ = r.Recommend("Rice", "Java ", 6.0, 26)
		if got.OK() {
			t.Error("province with trailing space matched")
		}
	})

	t.Run("falls back to province-level data", func(t *testing.T) {
		r := fittedRecommender(t,
			obsRow{"Rice", "Java", 4.0, 20, 100, 10, 5},
			obsRow{"Rice", "Java", 4.1, 21, 200, 20, 15},
			obsRow{"Rice", "Java", 8.0, 34, 300, 30, 25},
			obsRow{"Rice", "Java", 8.1, 35, 400, 40, 35},
			obsRow{"Rice", "Java", 8.2, 36, 500, 50, 45},
			obsRow{"Corn", "Java", 6.0, 27, 999, 999, 999},
		)

		got, err := r.Recommend("Rice", "Java", 6.0, 27)
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if got.MatchQuality != domain.MatchQualityLow {
			t.Errorf("MatchQuality = %s, want low", got.MatchQuality)
		}
		if got.Basis != "province-level data" {
			t.Errorf("Basis = %q", got.Basis)
		}
		if got.MatchedCount != 5 {
			t.Errorf("MatchedCount = %d, want 5", got.MatchedCount)
		}
		want := domain.FertilizerDose{Urea: 300, SP36: 30, KCl: 25}
		if *got.Dose != want {
			t.Errorf("Dose = %+v, want %+v", *got.Dose, want)
		}
	})

	t.Run("bounds are inclusive", func(t *testing.T) {
		r := fittedRecommender(t,
			obsRow{"Rice", "Java", 6.5, 28, 200, 100, 50},
			obsRow{"Rice", "Java", 5.5, 24, 300, 100, 50},
			obsRow{"Rice", "Java", 7.5, 40, 900, 900, 900},
		)

		got, _ := r.Recommend("Rice", "Java", 6.0, 26)
		if got.MatchQuality != domain.MatchQualityHigh || got.MatchedCount != 2 {
			t.Errorf("got %s with %d rows, want high with 2", got.MatchQuality, got.MatchedCount)
		}
		if got.Dose.Urea != 250 {
			t.Errorf("Urea = %v, want 250", got.Dose.Urea)
		}
	})

	t.Run("both pH and temperature must be close", func(t *testing.T) {
		r := fittedRecommender(t,
			obsRow{"Rice", "Java", 6.0, 31, 200, 100, 50},
			obsRow{"Rice", "Java", 7.0, 26, 300, 100, 50},
		)

		got, _ := r.Recommend("Rice", "Java", 6.0, 26)
		if got.MatchQuality != domain.MatchQualityLow || got.MatchedCount != 2 {
			t.Errorf("got %s with %d rows, want low with 2", got.MatchQuality, got.MatchedCount)
		}
	})

	t.Run("odd count takes middle value", func(t *testing.T) {
		r := fittedRecommender(t,
			obsRow{"Rice", "Java", 6.0, 26, 500, 1, 9},
			obsRow{"Rice", "Java", 6.0, 26, 100, 3, 7},
			obsRow{"Rice", "Java", 6.0, 26, 10000, 2, 8},
		)

		got, _ := r.Recommend("Rice", "Java", 6.0, 26)
		want := domain.FertilizerDose{Urea: 500, SP36: 2, KCl: 8}
		if *got.Dose != want {
			t.Errorf("Dose = %+v, want %+v", *got.Dose, want)
		}
	})
}

func TestRecommender_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	commodities := []string{"Padi", "Jagung", "Tebu"}
	provinces := []string{"Jawa Barat", "Bali", "Aceh"}

	var rows []obsRow
	for i := 0; i < 300; i++ {
		rows = append(rows, obsRow{
			commodity: commodities[rng.Intn(2)], // Tebu never appears
			province:  provinces[rng.Intn(len(provinces))],
			ph:        4.5 + rng.Float64()*3.5,
			temp:      20 + rng.Float64()*14,
			urea:      50 + rng.Float64()*300,
			sp36:      20 + rng.Float64()*150,
			kcl:       10 + rng.Float64()*120,
		})
	}
	r := fittedRecommender(t, rows...)

	for i := 0; i < 200; i++ {
		commodity := commodities[rng.Intn(len(commodities))]
		province := provinces[rng.Intn(len(provinces))]
		ph := 4 + rng.Float64()*5
		temp := 18 + rng.Float64()*18

		got, err := r.Recommend(commodity, province, ph, temp)
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}

		var exact, nearby []obsRow
		for _, row := range rows {
			if row.commodity != commodity || row.province != province {
				continue
			}
			exact = append(exact, row)
			if row.ph >= ph-0.5 && row.ph <= ph+0.5 && row.temp >= temp-2 && row.temp <= temp+2 {
				nearby = append(nearby, row)
			}
		}

		if len(exact) == 0 {
			if got.OK() {
				t.Errorf("%s/%s: success without exact matches", commodity, province)
			}
			continue
		}
		if !got.OK() {
			t.Fatalf("%s/%s: error result with %d exact matches", commodity, province, len(exact))
		}

		subset := nearby
		wantQuality := domain.MatchQualityHigh
		if len(nearby) == 0 {
			subset = exact
			wantQuality = domain.MatchQualityLow
		}
		if got.MatchQuality != wantQuality {
			t.Errorf("MatchQuality = %s, want %s", got.MatchQuality, wantQuality)
		}
		if got.MatchedCount != len(subset) {
			t.Errorf("MatchedCount = %d, want %d", got.MatchedCount, len(subset))
		}

		checkRange := func(name string, v float64, col func(obsRow) float64) {
			lo, hi := col(subset[0]), col(subset[0])
			for _, row := range subset {
				lo, hi = min(lo, col(row)), max(hi, col(row))
			}
			if v < lo || v > hi {
				t.Errorf("%s median %v outside [%v, %v]", name, v, lo, hi)
			}
		}
		checkRange("urea", got.Dose.Urea, func(o obsRow) float64 { return o.urea })
		checkRange("sp36", got.Dose.SP36, func(o obsRow) float64 { return o.sp36 })
		checkRange("kcl", got.Dose.KCl, func(o obsRow) float64 { return o.kcl })

		again, _ := r.Recommend(commodity, province, ph, temp)
		if !reflect.DeepEqual(got, again) {
			t.Errorf("repeat query differs: %+v vs %+v", got, again)
		}
	}
}

func TestRecommender_ConcurrentReads(t *testing.T) {
	r := fittedRecommender(t,
		obsRow{"Rice", "Java", 6.0, 26, 200, 100, 50},
		obsRow{"Rice", "Java", 6.4, 27, 220, 120, 70},
	)
	want, _ := r.Recommend("Rice", "Java", 6.2, 26.5)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := r.Recommend("Rice", "Java", 6.2, 26.5)
			if err != nil || !reflect.DeepEqual(got, want) {
				t.Errorf("concurrent Recommend() = %+v, %v", got, err)
			}
		}()
	}
	wg.Wait()
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want float64
	}{
		{"single", []float64{4}, 4},
		{"odd unsorted", []float64{9, 1, 5}, 5},
		{"even", []float64{1, 4, 2, 3}, 2.5},
		{"duplicates", []float64{7, 7, 7, 1}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := append([]float64(nil), tt.in...)
			if got := median(in); got != tt.want {
				t.Errorf("median(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if !reflect.DeepEqual(in, tt.in) {
				t.Errorf("median mutated its input: %v", in)
			}
		})
	}
}
