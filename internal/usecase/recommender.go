package usecase

import (
	"math"
	"slices"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/tumbuh/backend/internal/domain"
	"github.com/tumbuh/backend/internal/logging"
	"github.com/tumbuh/backend/internal/metrics"
)

// Proximity window around the query. These are fixed behaviour of the
// recommender, not tuning knobs.
const (
	soilPHTolerance      = 0.5
	temperatureTolerance = 2.0
)

// Recommender suggests fertilizer doses from historical observations of farms
// growing the same commodity in the same province.
//
// Fit must return before Recommend is called; after that the reference table
// is never mutated and Recommend is safe for concurrent use. Fit itself is not
// synchronised against Recommend.
type Recommender struct {
	table  []domain.Observation
	fitted bool
	logger zerolog.Logger
}

// NewRecommender creates an unfitted recommender
func NewRecommender() *Recommender {
	return &Recommender{logger: logging.Component("recommender")}
}

// Fit validates the dataset and replaces the reference table with a copy
// restricted to the seven observation columns. On error the previous table,
// if any, is kept.
func (r *Recommender) Fit(ds *domain.Dataset) error {
	observations, err := ParseObservations(ds)
	if err != nil {
		return err
	}

	r.table = observations
	r.fitted = true
	metrics.ReferenceTableRows.Set(float64(len(observations)))

	r.logger.Info().Int("observations", len(observations)).Msg("Reference table fitted")
	return nil
}

// Fitted reports whether Fit has succeeded at least once
func (r *Recommender) Fitted() bool {
	return r.fitted
}

// Size returns the number of observations in the reference table
func (r *Recommender) Size() int {
	return len(r.table)
}

// Recommend returns median doses of the observations matching commodity and
// province exactly, narrowed to those within ±0.5 pH and ±2 °C of the query
// when any exist. An unknown commodity/province pair yields an error result,
// not an error.
func (r *Recommender) Recommend(commodity, province string, soilPH, tempC float64) (domain.RecommendationResult, error) {
	if !r.fitted {
		return domain.RecommendationResult{}, domain.ErrNotFitted
	}

	exact := selectObservations(r.table, func(o *domain.Observation) bool {
		return o.Commodity == commodity && o.Province == province
	})
	if len(exact) == 0 {
		r.logger.Debug().
			Str("commodity", commodity).
			Str("province", province).
			Msg("No historical data for pair")
		metrics.RecordRecommendation(string(domain.RecommendationError), "")
		return domain.NewNoHistoricalDataResult(), nil
	}

	phMin, phMax := soilPH-soilPHTolerance, soilPH+soilPHTolerance
	tempMin, tempMax := tempC-temperatureTolerance, tempC+temperatureTolerance
	nearby := selectObservations(exact, func(o *domain.Observation) bool {
		return between(o.SoilPH, phMin, phMax) && between(o.TempC, tempMin, tempMax)
	})

	selected, quality := nearby, domain.MatchQualityHigh
	if len(nearby) == 0 {
		selected, quality = exact, domain.MatchQualityLow
	}

	dose := domain.FertilizerDose{
		Urea: medianOf(selected, func(o *domain.Observation) float64 { return o.Dose.Urea }),
		SP36: medianOf(selected, func(o *domain.Observation) float64 { return o.Dose.SP36 }),
		KCl:  medianOf(selected, func(o *domain.Observation) float64 { return o.Dose.KCl }),
	}

	r.logger.Debug().
		Str("commodity", commodity).
		Str("province", province).
		Int("exact", len(exact)).
		Int("nearby", len(nearby)).
		Str("quality", string(quality)).
		Msg("Recommendation computed")
	metrics.RecordRecommendation(string(domain.RecommendationSuccess), string(quality))

	return domain.NewRecommendationSuccess(dose, len(selected), quality), nil
}

// RecommendQuery is Recommend for a query struct
func (r *Recommender) RecommendQuery(q domain.RecommendationQuery) (domain.RecommendationResult, error) {
	return r.Recommend(q.Commodity, q.Province, q.SoilPH, q.TempC)
}

// ParseObservations checks that every required column is present and every
// required cell holds a value, then builds the typed observations.
func ParseObservations(ds *domain.Dataset) ([]domain.Observation, error) {
	if ds == nil {
		return nil, &domain.SchemaError{MissingColumns: domain.RequiredObservationColumns}
	}

	idx := make(map[string]int, len(domain.RequiredObservationColumns))
	var missing []string
	for _, col := range domain.RequiredObservationColumns {
		i := ds.ColumnIndex(col)
		if i < 0 {
			missing = append(missing, col)
			continue
		}
		idx[col] = i
	}
	if len(missing) > 0 {
		return nil, &domain.SchemaError{MissingColumns: missing}
	}

	observations := make([]domain.Observation, 0, ds.Len())
	for row := 0; row < ds.Len(); row++ {
		text := func(col string) (string, error) {
			v := ds.Cell(row, idx[col])
			if v == "" {
				return "", &domain.SchemaError{Row: row + 1, Column: col, Reason: "missing value"}
			}
			return v, nil
		}
		number := func(col string) (float64, error) {
			v, err := text(col)
			if err != nil {
				return 0, err
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return 0, &domain.SchemaError{Row: row + 1, Column: col, Value: v, Reason: "not a number"}
			}
			return f, nil
		}

		var (
			o   domain.Observation
			err error
		)
		if o.Commodity, err = text(domain.ColumnCommodity); err != nil {
			return nil, err
		}
		if o.Province, err = text(domain.ColumnProvince); err != nil {
			return nil, err
		}
		if o.SoilPH, err = number(domain.ColumnSoilPH); err != nil {
			return nil, err
		}
		if o.TempC, err = number(domain.ColumnTempC); err != nil {
			return nil, err
		}
		if o.Dose.Urea, err = number(domain.ColumnUrea); err != nil {
			return nil, err
		}
		if o.Dose.SP36, err = number(domain.ColumnSP36); err != nil {
			return nil, err
		}
		if o.Dose.KCl, err = number(domain.ColumnKCl); err != nil {
			return nil, err
		}
		observations = append(observations, o)
	}

	return observations, nil
}

func selectObservations(in []domain.Observation, keep func(*domain.Observation) bool) []domain.Observation {
	var out []domain.Observation
	for i := range in {
		if keep(&in[i]) {
			out = append(out, in[i])
		}
	}
	return out
}

// between is inclusive on both ends
func between(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

// medianOf returns the median of a column; even counts average the two middle values
func medianOf(obs []domain.Observation, column func(*domain.Observation) float64) float64 {
	values := make([]float64, len(obs))
	for i := range obs {
		values[i] = column(&obs[i])
	}
	return median(values)
}

func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := n / 2
	if n%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
