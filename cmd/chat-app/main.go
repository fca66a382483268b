package main

import (
	"os"

	"github.com/rahul01879/chat-app/cmd/chat-app/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
