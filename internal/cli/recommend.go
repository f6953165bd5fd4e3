package cli

import (
	"github.com/spf13/cobra"

	"github.com/tumbuh/backend/internal/domain"
	"github.com/tumbuh/backend/internal/infrastructure/dataset"
	"github.com/tumbuh/backend/internal/validation"
)

// NewRecommendCmd creates the 'recommend' command
func NewRecommendCmd() *cobra.Command {
	var (
		path  string
		opts  dataset.Options
		query domain.RecommendationQuery
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend fertilizer doses for a commodity and province",
		Long: `Fit the dataset and print the median urea, SP-36 and KCl doses (kg/ha)
of historical farms growing the commodity in the province, narrowed to farms
within 0.5 pH and 2 °C of the query when any exist.`,
		Example: `  tumbuhctl recommend --dataset data/pupuk.csv --commodity Padi --province "Jawa Barat" --ph 6.2 --temp 26.5
  tumbuhctl recommend --dataset data/pupuk.db --table observations --commodity Jagung --province Bali --ph 6 --temp 28`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateStruct(&query); err != nil {
				return err
			}
			_, rec, err := loadFitted(path, opts)
			if err != nil {
				return err
			}
			result, err := rec.RecommendQuery(query)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			return result.Err()
		},
	}

	cmd.Flags().StringVar(&path, "dataset", "", "Historical dataset (.csv, .xlsx, .db, .sqlite)")
	cmd.Flags().StringVar(&opts.Sheet, "sheet", "", "XLSX sheet (default: first sheet)")
	cmd.Flags().StringVar(&opts.Table, "table", dataset.DefaultTable, "SQLite table")
	cmd.Flags().StringVar(&query.Commodity, "commodity", "", "Commodity, e.g. Padi")
	cmd.Flags().StringVar(&query.Province, "province", "", "Province, e.g. \"Jawa Barat\"")
	cmd.Flags().Float64Var(&query.SoilPH, "ph", 0, "Soil pH")
	cmd.Flags().Float64Var(&query.TempC, "temp", 0, "Average temperature in °C")
	for _, name := range []string{"dataset", "commodity", "province", "ph", "temp"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}
