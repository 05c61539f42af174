package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var dbServer string

// NewRootCmd creates the root command for the registration CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registration",
		Short: "Self-service user registration",
		Long: `registration renders the signup form, creates accounts with the
default member role and sends the credential email, inline or through RabbitMQ.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&dbServer, "db", "", "database DSN, overrides persistence.server")

	cmd.AddCommand(newFormCmd())
	cmd.AddCommand(newRegisterCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newActivityCmd())
	cmd.AddCommand(newWorkerCmd())

	return cmd
}
