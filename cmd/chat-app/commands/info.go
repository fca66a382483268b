package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rahul01879/chat-app/internal/services/room"
)

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [roomID]",
		Short: "Show relay health, or details for one room",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if len(args) == 0 {
				h, err := wire.Relay.Health(ctx)
				if err != nil {
					return fmt.Errorf("relay unreachable: %w", err)
				}
				fmt.Printf("Status:       %s\n", h.Status)
				fmt.Printf("Database:     %s\n", h.Database)
				fmt.Printf("Active rooms: %d\n", h.ActiveRooms)
				return nil
			}
			roomID := room.NormalizeRoomID(args[0])
			info, err := wire.Relay.RoomInfo(ctx, roomID)
			if err != nil {
				return err
			}
			if !info.Exists {
				fmt.Printf("Room %s does not exist yet; rooms appear on first join\n", roomID)
				return nil
			}
			fmt.Printf("Room:           %s\n", info.RoomID)
			fmt.Printf("Created:        %s\n", info.CreatedAt)
			fmt.Printf("Expires:        %s\n", info.ExpiresAt)
			fmt.Printf("Active users:   %d\n", info.ActiveUsers)
			fmt.Printf("Time remaining: %s\n", info.TimeRemaining)
			return nil
		},
	}
}
