package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rahul01879/chat-app/internal/domain"
	"github.com/rahul01879/chat-app/internal/log"
	"github.com/rahul01879/chat-app/internal/protocol"
	"github.com/rahul01879/chat-app/internal/relay"
	"github.com/rahul01879/chat-app/internal/scheduler"
	accountsvc "github.com/rahul01879/chat-app/internal/services/account"
	roomsvc "github.com/rahul01879/chat-app/internal/services/room"
	"github.com/rahul01879/chat-app/internal/store"
)

// Wire bundles all stores, services, and clients for the CLI.
type Wire struct {
	Vault    domain.VaultStore
	Cache    domain.SessionCache
	Accounts domain.AccountService
	Rooms    domain.RoomService
	Relay    domain.RelayClient
	Dialer   domain.Transport
	Config   Config
}

// NewWire constructs the dependency graph from cfg. The caller owns the
// result and must Close it to release the vault.
func NewWire(cfg Config) (*Wire, error) {
	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, fmt.Errorf("app: create home: %w", err)
	}
	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(cfg.Home, "logs")
	}
	if err := log.Init(cfg.LogLevel, cfg.LogDir, cfg.LogConsole); err != nil {
		return nil, err
	}

	vault, err := store.OpenVault(filepath.Join(cfg.Home, "vault.db"))
	if err != nil {
		return nil, err
	}
	cache := store.NewMemoryCache()

	rc := relay.NewHTTP(cfg.ServerURL)
	if cfg.HTTP != nil {
		rc.HTTP = cfg.HTTP
	}

	return &Wire{
		Vault:    vault,
		Cache:    cache,
		Accounts: accountsvc.New(vault),
		Rooms:    roomsvc.New(cfg.ServerURL, cache),
		Relay:    rc,
		Dialer:   relay.NewDialer(cfg.ServerURL),
		Config:   cfg,
	}, nil
}

// Engine builds a protocol engine for one established session. Each call
// creates a fresh timer set so tearing a session down cancels exactly its
// own timers.
func (w *Wire) Engine(sess *domain.Session) *protocol.Engine {
	return protocol.New(sess, w.Relay, w.Dialer, scheduler.New(), protocol.Config{
		TypingQuiet:     w.Config.TypingQuiet,
		IdleTimeout:     w.Config.IdleTimeout,
		DestructDefault: w.Config.DestructDefault,
	})
}

// Close releases everything the wire holds open.
func (w *Wire) Close() error {
	return w.Vault.Close()
}
