package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func registerCmd() *cobra.Command {
	var displayName string
	cmd := &cobra.Command{
		Use:   "register [username]",
		Short: "Create a local account in the credential vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return fmt.Errorf("password required (-p)")
			}
			if displayName == "" {
				return fmt.Errorf("display name required (--name)")
			}
			profile, err := wire.Accounts.Register(args[0], displayName, password)
			if err != nil {
				return err
			}
			fmt.Printf("Account created for %s (display name %q)\n", profile.Username, profile.DisplayName)
			return nil
		},
	}
	cmd.Flags().StringVar(&displayName, "name", "", "display name shown to other members")
	return cmd
}
