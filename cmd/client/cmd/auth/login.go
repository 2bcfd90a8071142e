package auth

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"coinkeeper/cmd/client/cmd/types"
	"coinkeeper/internal/app/client"
)

var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the sync token on this device",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok {
			return fmt.Errorf("application not initialized")
		}

		fmt.Print("Login: ")
		var login string
		if _, err := fmt.Scanln(&login); err != nil {
			return fmt.Errorf("read login: %w", err)
		}

		fmt.Print("Password: ")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		fmt.Println()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		token, err := app.API.Login(ctx, login, string(password))
		if err != nil {
			return err
		}
		if err := app.Tokens.Save(token); err != nil {
			return err
		}

		fmt.Println("Logged in.")

		result, err := app.Agent.SyncNow(ctx)
		if err != nil {
			fmt.Printf("Warning: initial sync failed: %v\n", err)
			fmt.Println("Local data is intact; sync will retry later.")
			return nil
		}
		if !result.Skipped {
			fmt.Printf("Synced: %d uploaded, %d downloaded.\n", result.Uploaded, result.Downloaded)
		}
		return nil
	},
}
