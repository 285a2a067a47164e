package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/unidocs/unidocs/internal/mcp"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Start the Model Context Protocol server. The server speaks JSON-RPC
over stdin/stdout, so this command is meant to be launched by an MCP
client (Claude Desktop, an editor plugin), not run interactively.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	srv, err := mcp.NewServer(env.cfg, env.store, env.engine, env.fetcher, env.indexer, nil)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}
