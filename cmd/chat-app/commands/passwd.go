package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func passwdCmd() *cobra.Command {
	var newPassword string
	cmd := &cobra.Command{
		Use:   "passwd [username]",
		Short: "Change an account password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return fmt.Errorf("current password required (-p)")
			}
			if newPassword == "" {
				return fmt.Errorf("new password required (--new)")
			}
			if err := wire.Accounts.ChangePassword(args[0], password, newPassword); err != nil {
				return err
			}
			fmt.Println("Password changed")
			return nil
		},
	}
	cmd.Flags().StringVar(&newPassword, "new", "", "new password")
	return cmd
}
