package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"honquedoro/internal/interchange"
)

var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Export tasks, sessions and settings to a .json or .yaml file",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
		doc, err := interchange.Export(e.local, args[0], e.now())
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf(
			"Exported %d tasks and %d sessions to %s", len(doc.Tasks), len(doc.Sessions), args[0])))
		return nil
	}),
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace local data with an export file",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
		out := cmd.OutOrStdout()
		doc, err := interchange.Import(e.local, args[0])
		var validationErr *interchange.ValidationError
		if errors.As(err, &validationErr) {
			fmt.Fprintln(out, errorStyle.Render("Import failed, nothing was changed:"))
			for _, problem := range validationErr.Problems {
				fmt.Fprintln(out, errorStyle.Render("  - "+problem))
			}
			return errors.New("invalid import file")
		}
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf(
			"Imported %d tasks and %d sessions from %s", len(doc.Tasks), len(doc.Sessions), args[0])))
		return nil
	}),
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all local tasks, sessions and settings",
	RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
		if err := e.local.ClearAll(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("Local data cleared."))
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd, clearCmd)
}
