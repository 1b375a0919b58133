package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/smart-hr/internal/mcpserver"
	"github.com/spigell/smart-hr/internal/tools"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the read-only capabilities to an MCP client over stdio",
	Long: "Serve the read-only capabilities to an MCP client over stdio.\n" +
		"Every call acts for the owner given by --owner. Logs go to stderr.",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger, config := setup()

		st, err := openStore(ctx, config, logger, false)
		if err != nil {
			logger.Fatal("opening the database", zap.Error(err))
		}
		defer st.Close()

		server, err := mcpserver.New(tools.New(st, logger.Named("tools")), callerFromFlags(cmd), version, logger.Named("mcp"))
		if err != nil {
			logger.Fatal("creating the mcp server", zap.Error(err))
		}

		if err := server.ServeStdio(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
			logger.Fatal("serving mcp", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	addCallerFlags(mcpCmd)
}
