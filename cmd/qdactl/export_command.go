package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"qualweave/internal/exporter"
)

func newExportCmd(dbPath *string) *cobra.Command {
	var (
		projectID string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a project as a zip archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(*dbPath)
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()

			out, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			defer func() {
				_ = out.Close()
			}()

			if err := exporter.NewService(db).WriteArchive(cmd.Context(), projectID, out); err != nil {
				_ = os.Remove(output)
				return err
			}
			cmd.Printf("Exported project %s to %s\n", projectID, output)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project id to export (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "project-export.zip", "Output archive path")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
