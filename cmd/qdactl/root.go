// qdactl is the offline companion CLI: it runs the export and import
// engines directly against a local database, without the API server.
package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"qualweave/internal/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:           "qdactl",
		Short:         "Offline project export/import for qualweave databases",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "./data/qualweave.db", "Path to the SQLite database")

	cmd.AddCommand(newExportCmd(&dbPath))
	cmd.AddCommand(newImportCmd(&dbPath))
	return cmd
}

// openDatabase opens and migrates the database named by the --db flag.
func openDatabase(path string) (*sql.DB, error) {
	db, err := storage.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}
