// Package types holds the context keys shared between the command packages.
package types

type contextKey string

// ClientAppKey carries the initialized *client.App from the root command's
// PersistentPreRunE into every subcommand's context.
const ClientAppKey contextKey = "clientApp"
