// sportsdesk - sports news feed and chat server
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	var cfgPath string
	root := &cobra.Command{
		Use:           "server",
		Short:         "Sports news feed and chat server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(); err != nil {
				slog.Info("No .env file found, using environment variables")
			}
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "optional config file (json, yaml or toml)")

	root.AddCommand(serveCMD(&cfgPath), roundupCMD(&cfgPath), articlesCMD(&cfgPath))
	if err := root.Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
