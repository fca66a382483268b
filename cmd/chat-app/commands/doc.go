// Package commands defines the chat-app CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - register     Create a local account in the credential vault
//   - users        List vault accounts
//   - passwd       Change an account password
//   - deluser      Remove an account
//   - create       Create an encrypted room and chat in it
//   - join         Join a room from an invite link
//   - fingerprint  Print the key fingerprint of an invite link
//   - info         Show relay health, or details for one room
//
// # Implementation
//
// The root command loads configuration from the environment, initialises
// logging and builds the dependency graph (vault, services, relay
// clients) before any subcommand runs. create and join hand off to an
// interactive loop that renders engine events and accepts /commands.
package commands
