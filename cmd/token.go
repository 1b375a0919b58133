package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for an owner, for local development",
	Run: func(cmd *cobra.Command, _ []string) {
		logger, config := setup()

		manager, err := newAuthManager(config)
		if err != nil {
			logger.Fatal("configuring session tokens", zap.Error(err))
		}

		token, err := manager.Issue(callerFromFlags(cmd))
		if err != nil {
			logger.Fatal("issuing a token", zap.Error(err))
		}

		fmt.Println(token)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	addCallerFlags(tokenCmd)
}
