package main

import (
	"fmt"
	"os"

	"github.com/aretw0/coach/internal/cli"
	"github.com/aretw0/coach/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the response table as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart (graph TD) of the response table. Options
whose topic is missing are drawn as dashed edges into the fallback node.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		engine, err := cli.NewEngine(cli.EngineOptions{Table: cfg.Table})
		if err != nil {
			return err
		}

		chart := graph.GenerateTableMermaid(engine.Table(), nil)
		if output == "" || output == "-" {
			fmt.Print(chart)
			return nil
		}
		if err := os.WriteFile(output, []byte(chart), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", output, err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("output", "o", "", "Write the diagram to a file instead of stdout")
}
