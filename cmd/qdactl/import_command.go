package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"qualweave/internal/importer"
)

func newImportCmd(dbPath *string) *cobra.Command {
	var validateOnly bool

	cmd := &cobra.Command{
		Use:   "import <archive.zip>",
		Short: "Import a project archive, or validate it with --validate-only",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			bundle, err := importer.ReadArchive(data)
			if err != nil {
				return err
			}

			if validateOnly {
				result := importer.Validate(bundle)
				if !result.Valid {
					return fmt.Errorf("archive is missing required tables: %s",
						strings.Join(result.MissingFiles, ", "))
				}
				cmd.Println("Archive is valid")
				return nil
			}

			db, err := openDatabase(*dbPath)
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()

			summary, err := importer.NewService(db).Import(cmd.Context(), bundle)
			if err != nil {
				return err
			}

			cmd.Printf("Imported project %q (%s)\n", summary.ProjectName, summary.ProjectID)
			entities := make([]string, 0, len(summary.Counts))
			for entity := range summary.Counts {
				entities = append(entities, entity)
			}
			sort.Strings(entities)
			for _, entity := range entities {
				cmd.Printf("  %-12s %d\n", entity, summary.Counts[entity])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&validateOnly, "validate-only", false, "Only validate the archive, do not import")
	return cmd
}
