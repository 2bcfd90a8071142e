package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"coinkeeper/cmd/client/cmd/types"
	"coinkeeper/internal/app/client"
)

var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored sync token",
	Long: `Removes the token from this device. Local data stays; sync simply
stops until the next login.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok {
			return fmt.Errorf("application not initialized")
		}

		if err := app.Tokens.Clear(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}
