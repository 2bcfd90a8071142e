// Package sync holds the manual sync command.
package sync

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"coinkeeper/cmd/client/cmd/types"
	"coinkeeper/internal/app/client"
)

var (
	showStatus bool
	watch      bool
)

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync with the server now",
	Long: `Runs one sync round trip. With --watch the command keeps syncing on
the configured interval until interrupted; with --status it only reports
the watermark and pending changes.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok {
			return fmt.Errorf("application not initialized")
		}

		if showStatus {
			return printStatus(cmd, app)
		}
		if watch {
			return runWatch(cmd, app)
		}
		return runOnce(cmd, app)
	},
}

func runOnce(cmd *cobra.Command, app *client.App) error {
	if _, ok := app.Tokens.Token(); !ok {
		return fmt.Errorf("not logged in; run: coinkeeper auth login")
	}

	start := time.Now()
	result, err := app.Agent.SyncNow(cmd.Context())
	if err != nil {
		return err
	}
	if result.Skipped {
		fmt.Println("Sync already in progress, nothing to do.")
		return nil
	}

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s in %v\n", green("Sync complete"), time.Since(start).Round(time.Millisecond))
	fmt.Printf("  uploaded:   %d\n", result.Uploaded)
	fmt.Printf("  downloaded: %d\n", result.Downloaded)
	fmt.Printf("  watermark:  %s\n", result.SyncedAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}

func runWatch(cmd *cobra.Command, app *client.App) error {
	interval := time.Duration(app.Config.SyncInterval) * time.Second
	fmt.Printf("Auto sync every %v; Ctrl+C to stop.\n", interval)

	if err := runOnce(cmd, app); err != nil {
		color.Yellow("sync failed: %v", err)
	}

	app.Agent.StartAutoSync(interval)
	defer app.Agent.StopAutoSync()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	fmt.Println("\nStopping.")
	return nil
}

func printStatus(cmd *cobra.Command, app *client.App) error {
	lastSyncedAt, pending, err := app.Agent.Status(cmd.Context())
	if err != nil {
		return err
	}

	if lastSyncedAt.IsZero() {
		fmt.Println("Last sync:       never")
	} else {
		fmt.Printf("Last sync:       %s\n", lastSyncedAt.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("Pending changes: %d\n", pending)

	if _, ok := app.Tokens.Token(); ok {
		color.Green("Logged in")
	} else {
		color.Yellow("Not logged in; sync is paused")
	}

	if err := app.API.HealthCheck(cmd.Context()); err != nil {
		color.Yellow("Server unreachable: %v", err)
	} else {
		color.Green("Server reachable")
	}
	return nil
}

func init() {
	SyncCmd.Flags().BoolVar(&showStatus, "status", false, "show sync status instead of syncing")
	SyncCmd.Flags().BoolVar(&watch, "watch", false, "keep syncing on the configured interval")
}
