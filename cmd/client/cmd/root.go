package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"coinkeeper/cmd/client/cmd/types"
	"coinkeeper/internal/app/client"
	"coinkeeper/internal/app/client/config"
	"coinkeeper/internal/utils/logger"
)

var (
	app       *client.App
	serverURL string
)

var rootCmd = &cobra.Command{
	Use:   "coinkeeper",
	Short: "Coinkeeper - offline-first personal budgeting",
	Long: `Coinkeeper keeps your budget on this device and syncs it with the
server whenever a connection is available. Categories, transactions,
budgets and savings goals all work offline; sync reconciles devices
with last-write-wins.`,
	PersistentPreRunE: setupApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() {
	defer func() {
		if app != nil {
			app.Shutdown()
		}
	}()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	cfg := config.MustLoad()
	if serverURL != "" {
		cfg.ServerAddress = serverURL
	}

	log := logger.New(cfg.Env)

	var err error
	app, err = client.New(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}

	cmd.SetContext(context.WithValue(cmd.Context(), types.ClientAppKey, app))
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "sync server address (overrides SERVER_ADDRESS)")
}
