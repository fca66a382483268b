package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rahul01879/chat-app/internal/app"
	"github.com/rahul01879/chat-app/internal/domain"
)

var (
	home      string
	serverURL string
	username  string
	password  string
	logLevel  string

	wire *app.Wire
)

func Execute() error {
	root := &cobra.Command{
		Use:   "chat-app",
		Short: "End-to-end encrypted chat rooms from the terminal",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.FromEnv()
			if err != nil {
				return err
			}
			if home != "" {
				cfg.Home = home
			}
			if serverURL != "" {
				cfg.ServerURL = serverURL
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			wire, err = app.NewWire(cfg)
			return err
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.chat-app)")
	root.PersistentFlags().StringVar(&serverURL, "server", "", "relay base URL (e.g. http://127.0.0.1:8080)")
	root.PersistentFlags().StringVar(&username, "user", "", "account username")
	root.PersistentFlags().StringVarP(&password, "password", "p", "", "account password")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log verbosity (debug, info, warn, error)")

	root.AddCommand(
		registerCmd(), usersCmd(), passwdCmd(), deluserCmd(),
		createCmd(), joinCmd(), fingerprintCmd(), infoCmd(),
	)

	defer func() {
		if wire != nil {
			wire.Close()
		}
	}()
	return root.Execute()
}

// login authenticates the --user/-p pair against the vault.
func login() (domain.Profile, error) {
	if username == "" {
		return domain.Profile{}, fmt.Errorf("username required (--user)")
	}
	if password == "" {
		return domain.Profile{}, fmt.Errorf("password required (-p)")
	}
	return wire.Accounts.Login(username, password)
}
