package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/codefactory/internal/mcp"
	"github.com/dshills/codefactory/internal/storage"
)

func newServeCmd(opts *options) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analyzer as an MCP server on stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout. Logs go to
stderr. The --db flag selects the chunk store shared by every tool call.`,
		Args: cobra.NoArgs,
	}
	v, err := bindCommand(cmd)
	if err != nil {
		return nil, err
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := opts.load(v)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		logger.Info("starting MCP server",
			zap.String("build_mode", storage.BuildMode),
			zap.String("driver", storage.DriverName))

		srv, err := mcp.NewServer(cfg, logger)
		if err != nil {
			return err
		}
		if err := srv.Serve(cmd.Context()); err != nil && cmd.Context().Err() == nil {
			return err
		}
		logger.Info("server stopped")
		return nil
	}
	return cmd, nil
}
