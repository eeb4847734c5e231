/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/udflash/pkg/api"
	"github.com/ssargent/udflash/pkg/config"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the udflash REST API server. Requests under /api/v1 require the
X-API-Key header; Prometheus metrics are served unauthenticated on /metrics.

When the configured key is "auto" a random key is generated for this run
and printed.

Examples:
  udflash serve
  udflash serve --port 9000 --api-key mysecretkey`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}
		rt, err := runtimeFrom(cmd)
		if err != nil {
			return err
		}

		serverConfig := api.ServerConfig{
			Bind:   cfg.Server.Bind,
			Port:   cfg.Server.Port,
			APIKey: cfg.Security.APIKey,
		}
		if cmd.Flags().Changed("bind") {
			serverConfig.Bind, _ = cmd.Flags().GetString("bind")
		}
		if cmd.Flags().Changed("port") {
			serverConfig.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("api-key") {
			serverConfig.APIKey, _ = cmd.Flags().GetString("api-key")
		}

		if serverConfig.APIKey == "" || serverConfig.APIKey == "auto" {
			key, err := config.GenerateSecureKey(32)
			if err != nil {
				return err
			}
			serverConfig.APIKey = key
			cmd.Printf("Generated API key: %s\n", key)
		}

		if container == nil {
			return errors.New("dependency container not initialized")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		server := api.NewServer(rt.Engine, rt.Journal, serverConfig, rt.Metrics)
		starter := container.GetServerFactory().CreateServerStarter()
		return starter.StartServer(ctx, server, serverConfig)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind server to")
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("api-key", "", "API key for client authentication")
}
