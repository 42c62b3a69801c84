package main

import (
	"fmt"

	"browser-dispatch/internal/adapter/mcp"

	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Serves every registered tool over MCP.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		container, err := newContainer(cmd)
		if err != nil {
			return err
		}
		defer container.Close()

		srv, err := mcp.NewServer(container.Dispatcher, container.Session, container.Logger)
		if err != nil {
			return err
		}

		switch transport {
		case "stdio":
			container.Logger.Info("Starting MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			if err := srv.ServeSSE(cmd.Context(), port); err != nil {
				return err
			}
			container.Logger.Info("MCP server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
