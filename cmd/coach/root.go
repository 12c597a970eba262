package main

import (
	"fmt"
	"os"

	"github.com/aretw0/coach/internal/config"
	"github.com/spf13/cobra"
)

// cfg is loaded once before any command runs; flags override it.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "coach",
	Short: "A scripted productivity assistant",
	Long: `coach walks you through a fixed table of answers about motivation,
habits, goals, time management, stress and rewards.

Run without a command to start chatting in the terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		loaded, err := config.Load(envFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("table") {
			loaded.Table, _ = cmd.Flags().GetString("table")
		}
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("table", "t", "", "Response table: a YAML/JSON file or a directory of markdown nodes (default: built-in table)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging to stderr")
	rootCmd.PersistentFlags().String("env-file", ".env", "Optional .env file to load before reading COACH_* variables")
}

func debugFlag(cmd *cobra.Command) bool {
	debug, _ := cmd.Flags().GetBool("debug")
	return debug
}
