package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tumbuh/backend/internal/infrastructure/dataset"
)

// NewImportCmd creates the 'import' command
func NewImportCmd() *cobra.Command {
	var (
		path  string
		opts  dataset.Options
		db    string
		table string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Validate a dataset and copy it into SQLite",
		Long: `Load the dataset, check it against the observation schema and write it
into a SQLite table, replacing the table if it exists. The server can then
read the dataset with data.dataset_path pointing at the database.`,
		Example: `  tumbuhctl import --dataset data/pupuk.csv --db data/pupuk.db
  tumbuhctl import --dataset data/pupuk.xlsx --sheet Sheet1 --db data/pupuk.db --table observations`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, rec, err := loadFitted(path, opts)
			if err != nil {
				return err
			}
			if err := dataset.ImportToSQLite(cmd.Context(), ds, db, table); err != nil {
				return fmt.Errorf("import into %s: %w", db, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rows (%d observations) into %s table %q\n",
				ds.Len(), rec.Size(), db, table)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "dataset", "", "Dataset to import (.csv, .xlsx, .db, .sqlite)")
	cmd.Flags().StringVar(&opts.Sheet, "sheet", "", "XLSX sheet (default: first sheet)")
	cmd.Flags().StringVar(&opts.Table, "source-table", dataset.DefaultTable, "SQLite table when the source is a database")
	cmd.Flags().StringVar(&db, "db", "", "Target SQLite database file")
	cmd.Flags().StringVar(&table, "table", dataset.DefaultTable, "Target table")
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// NewExportCmd creates the 'export' command
func NewExportCmd() *cobra.Command {
	var (
		path  string
		opts  dataset.Options
		out   string
		sheet string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Validate a dataset and write it as an XLSX workbook",
		Example: `  tumbuhctl export --dataset data/pupuk.db --xlsx pupuk.xlsx
  tumbuhctl export --dataset data/pupuk.csv --xlsx pupuk.xlsx --out-sheet Observasi`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, _, err := loadFitted(path, opts)
			if err != nil {
				return err
			}
			if err := dataset.WriteXLSX(ds, out, sheet); err != nil {
				return fmt.Errorf("export to %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows to %s\n", ds.Len(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "dataset", "", "Dataset to export (.csv, .xlsx, .db, .sqlite)")
	cmd.Flags().StringVar(&opts.Sheet, "sheet", "", "XLSX sheet when the source is a workbook")
	cmd.Flags().StringVar(&opts.Table, "table", dataset.DefaultTable, "SQLite table when the source is a database")
	cmd.Flags().StringVar(&out, "xlsx", "", "Target workbook")
	cmd.Flags().StringVar(&sheet, "out-sheet", "", "Target sheet name (default: Sheet1)")
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("xlsx")

	return cmd
}
