package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rahul01879/chat-app/internal/crypto"
	"github.com/rahul01879/chat-app/internal/services/room"
)

func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint [locator]",
		Short: "Print the key fingerprint of an invite link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID, portable, err := room.ParseLocator(args[0])
			if err != nil {
				return err
			}
			key, err := crypto.Import(portable)
			if err != nil {
				return err
			}
			defer key.Destroy()
			fp, err := crypto.Fingerprint(key)
			if err != nil {
				return err
			}
			fmt.Printf("Room: %s\nFingerprint: %s\n", roomID, fp)
			return nil
		},
	}
}
