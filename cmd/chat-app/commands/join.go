package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rahul01879/chat-app/internal/services/room"
)

func joinCmd() *cobra.Command {
	var portable string
	cmd := &cobra.Command{
		Use:   "join [locator]",
		Short: "Join a room from an invite link and start chatting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := login()
			if err != nil {
				return err
			}
			sess, err := wire.Rooms.Join(profile.Username, args[0], portable)
			if errors.Is(err, room.ErrKeyRequired) {
				// A bare room id can still work when this process has
				// held the key before.
				sess, err = wire.Rooms.Recover(profile.Username, bareRoomID(args[0]))
				if errors.Is(err, room.ErrNoRecovery) {
					return fmt.Errorf("%s names a room but carries no key; ask for the full invite link", args[0])
				}
			}
			if err != nil {
				return err
			}
			fmt.Printf("Joined room %s.\n", sess.RoomID)
			fmt.Printf("Key fingerprint: %s (compare out of band)\n\n", sess.Fingerprint)
			return runChat(sess)
		},
	}
	cmd.Flags().StringVar(&portable, "key", "", "room key when it is not part of the locator")
	return cmd
}

// bareRoomID digs the room ID out of whatever shape the argument has.
func bareRoomID(arg string) string {
	if strings.ContainsAny(arg, "#=&/") {
		if id, _, err := room.ParseLocator(arg); err == nil || errors.Is(err, room.ErrKeyRequired) {
			return id
		}
	}
	return room.NormalizeRoomID(arg)
}
