package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/coach/internal/cli"
	"github.com/aretw0/coach/pkg/adapters/memory"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect sessions held by the server's store",
	Long: `List, inspect, and remove sessions in the configured store.
Only useful with COACH_STORE=redis; the memory store lives inside the server process.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List held sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer backend.Close()

		ids, err := backend.Store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(out, "No sessions found.")
			return nil
		}
		for _, id := range ids {
			fmt.Fprintln(out, "- "+id)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect [session-id]",
	Short: "Print a session as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer backend.Close()

		s, err := backend.Store.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error loading session %s: %w", args[0], err)
		}
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm [session-id]",
	Short: "Remove a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer backend.Close()

		if err := backend.Store.Delete(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("error removing session %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session '%s' removed.\n", args[0])
		return nil
	},
}

func openBackend(cmd *cobra.Command) (*cli.Backend, error) {
	logger := cli.NewLogger(nil, debugFlag(cmd))
	backend, err := cli.NewBackend(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, err
	}
	if _, ok := backend.Store.(*memory.Store); ok {
		fmt.Fprintln(cmd.ErrOrStderr(), "note: COACH_STORE is memory; this process holds no sessions")
	}
	return backend, nil
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
}
