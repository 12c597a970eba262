package main

import (
	"fmt"

	"github.com/aretw0/coach/internal/cli"
	"github.com/aretw0/coach/internal/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the response table for authoring issues",
	Long: `Builds the table (greeting and fallback must exist, the fallback must lead
home) and crawls it from the greeting. Dangling references, unreachable nodes
and nodes without a way back are reported as warnings; --strict turns them
into a failure.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, _ := cmd.Flags().GetBool("strict")

		engine, err := cli.NewEngine(cli.EngineOptions{Table: cfg.Table})
		if err != nil {
			return err
		}

		report := validator.ValidateTable(engine.Table())
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Table %q: %d nodes, greeting %q, fallback %q\n", engine.Name, report.Nodes, report.Greeting, report.Fallback)
		for _, w := range report.Warnings() {
			fmt.Fprintf(out, "  warning: %s\n", w)
		}

		if err := report.Err(strict); err != nil {
			return err
		}
		if report.OK() {
			fmt.Fprintln(out, "Table is valid! ✅")
		} else {
			fmt.Fprintf(out, "Table is usable with %d warnings.\n", len(report.Warnings()))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Fail on warnings")
}
