// Package auth holds the account commands: register, login, logout.
package auth

import (
	"github.com/spf13/cobra"
)

var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the server account on this device",
}
