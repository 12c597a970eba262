package main

import (
	"os"

	"github.com/aretw0/coach/internal/cli"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant in the terminal",
	Long: `Shows the greeting and its numbered options. Type a number or the text of
an option to choose it; "quit", "exit" or Ctrl+D ends the conversation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")
		plain, _ := cmd.Flags().GetBool("plain")
		sessionID, _ := cmd.Flags().GetString("session")

		debug := debugFlag(cmd)
		// Logs stay off in chat unless asked for; they would interleave with the UI.
		logger := cli.NewLogger(nil, debug)

		engine, err := cli.NewEngine(cli.EngineOptions{Table: cfg.Table, Logger: logger, Debug: debug})
		if err != nil {
			return err
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		return cli.RunChat(ctx, cli.ChatOptions{
			Engine:       engine,
			SessionID:    sessionID,
			In:           os.Stdin,
			Out:          os.Stdout,
			JSON:         jsonMode,
			Rich:         !plain && term.IsTerminal(int(os.Stdout.Fd())),
			MaxInputSize: cfg.MaxInputSize,
			Logger:       logger,
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().Bool("json", false, "Use JSON-lines input/output")
	chatCmd.Flags().Bool("plain", false, "Disable the banner and markdown rendering")
	chatCmd.Flags().String("session", "cli", "Session ID reported to lifecycle hooks")

	// chat is the default command
	rootCmd.RunE = chatCmd.RunE
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
}
