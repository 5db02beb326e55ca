package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bryanchriswhite/godotshot/internal/api"
	"github.com/bryanchriswhite/godotshot/internal/logger"
	"github.com/bryanchriswhite/godotshot/internal/mcp"
	"github.com/bryanchriswhite/godotshot/internal/tools"
	"github.com/spf13/cobra"
)

const serverName = "godot-screenshot-server"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the MCP server.

By default the server speaks line-delimited JSON-RPC on stdin/stdout, which is
how MCP clients launch it. With --http it also serves MCP over HTTP POST and
WebSocket plus a small REST API on --port. Logs always go to stderr.`,
	Example: `  # Serve MCP on stdio (what an MCP client runs)
  godotshot serve

  # Also serve HTTP/WebSocket on port 9090
  godotshot serve --http --port 9090

  # HTTP only, with debug logging
  godotshot serve --http --stdio=false --log-level debug`,
	RunE: runServe,
}

var (
	serveHTTP  bool
	serveStdio bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveHTTP, "http", false, "serve MCP over HTTP/WebSocket and the REST API")
	serveCmd.Flags().BoolVar(&serveStdio, "stdio", true, "serve MCP over stdin/stdout")
	serveCmd.Flags().Int("port", 0, "HTTP port (default is 8080)")
	bindFlags(serveCmd.Flags(), map[string]string{"server_port": "port"})
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	if !serveHTTP && !serveStdio {
		return fmt.Errorf("nothing to serve: enable --stdio or --http")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	handler := tools.FromApp(a)
	rpc := mcp.NewServer(serverName, Version, handler)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpDone := make(chan error, 1)
	if serveHTTP {
		cfg := configMgr.Get()
		server := api.NewServer(rpc, a, a.Registry, a.Capture, Version)
		go func() {
			httpDone <- server.Start(ctx, cfg.ServerPort)
		}()
		log.Info().Int("port", cfg.ServerPort).Msg("HTTP transport enabled")
	} else {
		httpDone <- nil
	}

	if serveStdio {
		go func() {
			log.Info().Msg("Godot Screenshot MCP Server running on stdio transport")
			if err := rpc.ServeStdio(ctx, os.Stdin, os.Stdout); err != nil {
				log.Error().Err(err).Msg("stdio transport failed")
			}
			// stdin closing means the client is gone
			stop()
		}()
	}

	// A blocked stdin read cannot be interrupted, so only the HTTP server is
	// waited for.
	select {
	case err = <-httpDone:
		if serveHTTP {
			stop()
		} else {
			<-ctx.Done()
		}
	case <-ctx.Done():
		err = <-httpDone
	}

	log.Info().Msg("Shutting down")
	return err
}
