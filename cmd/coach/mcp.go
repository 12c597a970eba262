package main

import (
	"fmt"
	"log"
	"os"

	"github.com/aretw0/coach/internal/cli"
	"github.com/aretw0/coach/pkg/adapters/mcp"
	"github.com/aretw0/coach/pkg/adapters/memory"
	"github.com/aretw0/coach/pkg/session"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the assistant as MCP tools so AI agents can hold conversations.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")
		baseURL, _ := cmd.Flags().GetString("base-url")

		// Logs go to stderr; stdout carries JSON-RPC in stdio mode.
		log.SetOutput(os.Stderr)
		logger := cli.NewLogger(cfg, debugFlag(cmd))

		engine, err := cli.NewEngine(cli.EngineOptions{Table: cfg.Table, Logger: logger, Debug: debugFlag(cmd)})
		if err != nil {
			return err
		}
		mgr := session.NewManager(engine, memory.NewStore(), session.WithLogger(logger))
		srv := mcp.NewServer(mgr, engine.Table(),
			mcp.WithLogger(logger),
			mcp.WithMaxInputSize(cfg.MaxInputSize),
		)

		switch transport {
		case "stdio":
			logger.Info("starting MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			if baseURL == "" {
				baseURL = "http://localhost" + addr
			}
			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()
			return srv.ServeSSE(ctx, addr, baseURL)
		default:
			return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8081", "Address to listen on (only for SSE)")
	mcpCmd.Flags().String("base-url", "", "Public base URL announced to SSE clients (default http://localhost<addr>)")
}
