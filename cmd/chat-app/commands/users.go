package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List accounts in the credential vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := wire.Accounts.List()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("No accounts yet. Create one with: chat-app register <username> --name <display name> -p <password>")
				return nil
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
}
