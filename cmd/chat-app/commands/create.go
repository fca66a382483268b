package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func createCmd() *cobra.Command {
	var roomID string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an encrypted room and start chatting",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := login()
			if err != nil {
				return err
			}
			sess, err := wire.Rooms.Create(profile.Username, roomID)
			if err != nil {
				return err
			}
			fmt.Printf("Room %s created.\n", sess.RoomID)
			fmt.Printf("Invite link: %s\n", sess.Locator)
			fmt.Printf("Key fingerprint: %s (compare out of band)\n\n", sess.Fingerprint)
			return runChat(sess)
		},
	}
	cmd.Flags().StringVar(&roomID, "room", "", "use this room id instead of a random one")
	return cmd
}
