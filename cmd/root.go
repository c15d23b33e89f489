package cmd

import (
	"github.com/nguyentranbao-ct/listing-proxy/internal/app"
	"github.com/nguyentranbao-ct/listing-proxy/internal/server"
	"github.com/nguyentranbao-ct/listing-proxy/pkg/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "listing-proxy",
	Short:         "Storefront listing proxy in front of the Shopify Admin API",
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		app.Invoke(
			server.StartServer,
		).Run()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.MustNamed("cmd").Fatal(err)
	}
}
