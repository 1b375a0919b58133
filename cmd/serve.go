package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/smart-hr/internal/api"
	"github.com/spigell/smart-hr/internal/tools"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the job board API and the chat assistant over HTTP",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().Bool("migrate", true, "apply schema migrations before serving")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup()
	defer logger.Sync()

	logger.Info("starting the smart-hr server", zap.String("version", version))

	migrate, _ := cmd.Flags().GetBool("migrate")
	st, err := openStore(ctx, config, logger, migrate)
	if err != nil {
		logger.Fatal("opening the database", zap.Error(err))
	}
	defer st.Close()

	authn, err := newAuthManager(config)
	if err != nil {
		logger.Fatal("configuring session tokens", zap.Error(err))
	}

	toolset := tools.New(st, logger.Named("tools"))

	pipeline, err := newPipeline(ctx, config, toolset, logger)
	if err != nil {
		logger.Fatal("configuring the assistant", zap.Error(err))
	}

	server := api.NewServer(config.Server, toolset, st, pipeline, authn, logger.Named("http"))
	if err := server.Run(ctx); err != nil {
		logger.Fatal("serving http", zap.Error(err))
	}

	logger.Info("exiting", zap.String("reason", "shutdown requested"))
}
