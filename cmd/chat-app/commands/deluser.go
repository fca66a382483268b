package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func deluserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deluser [username]",
		Short: "Delete an account from the credential vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return fmt.Errorf("password required (-p)")
			}
			if err := wire.Accounts.Remove(args[0], password); err != nil {
				return err
			}
			fmt.Println("Account deleted")
			return nil
		},
	}
}
