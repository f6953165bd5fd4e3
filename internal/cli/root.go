/*
Package cli implements the tumbuhctl commands.

tumbuhctl works on the historical fertilizer dataset without the HTTP
server: it answers recommendation queries, validates datasets and converts
them between the supported formats.
*/
package cli

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tumbuh/backend/internal/domain"
	"github.com/tumbuh/backend/internal/infrastructure/dataset"
	"github.com/tumbuh/backend/internal/logging"
	"github.com/tumbuh/backend/internal/usecase"
)

// NewRootCmd creates the tumbuhctl root command with every subcommand attached
func NewRootCmd(version string) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "tumbuhctl",
		Short: "Fertilizer recommendation tools for the TUMBUH dataset",
		Long: `tumbuhctl answers fertilizer recommendation queries from a historical
dataset (CSV, XLSX or SQLite) and converts datasets between formats.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(logging.Config{
				Level:  logLevel,
				Format: "console",
				Output: cmd.ErrOrStderr(),
			})
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(NewRecommendCmd())
	root.AddCommand(NewImportCmd())
	root.AddCommand(NewExportCmd())
	root.AddCommand(NewVersionCmd(version))
	return root
}

// loadFitted loads a dataset and fits a recommender on it, which also
// validates the schema
func loadFitted(path string, opts dataset.Options) (*domain.Dataset, *usecase.Recommender, error) {
	ds, err := dataset.Load(path, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", path, err)
	}
	rec := usecase.NewRecommender()
	if err := rec.Fit(ds); err != nil {
		return nil, nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return ds, rec, nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
