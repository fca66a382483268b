package app

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home       string // config directory, e.g. $HOME/.chat-app
	ServerURL  string // relay base URL, e.g. http://127.0.0.1:8080
	LogLevel   string
	LogDir     string // empty means <Home>/logs
	LogConsole bool   // also mirror log output to stderr

	IdleTimeout     time.Duration // inactivity before automatic logout
	TypingQuiet     time.Duration // quiet period that ends a typing burst
	DestructDefault time.Duration // self-destruct delay when none is given

	HTTP *http.Client // optional; relay clients bring their own otherwise
}

// FromEnv builds a Config from the environment, reading an optional .env
// file first. Every key has a usable default so a bare invocation works.
func FromEnv() (Config, error) {
	godotenv.Load()

	idle, err := getEnvAsDuration("CHAT_IDLE_TIMEOUT", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}
	quiet, err := getEnvAsDuration("CHAT_TYPING_QUIET", 3*time.Second)
	if err != nil {
		return Config{}, err
	}
	destruct, err := getEnvAsDuration("CHAT_DESTRUCT_DEFAULT", 60*time.Second)
	if err != nil {
		return Config{}, err
	}

	home := getEnv("CHAT_HOME", "")
	if home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("app: resolve home: %w", err)
		}
		home = filepath.Join(dir, ".chat-app")
	}

	return Config{
		Home:            home,
		ServerURL:       getEnv("CHAT_SERVER_URL", "http://127.0.0.1:8080"),
		LogLevel:        getEnv("CHAT_LOG_LEVEL", "info"),
		LogDir:          getEnv("CHAT_LOG_DIR", ""),
		LogConsole:      getEnvAsBool("CHAT_LOG_CONSOLE", false),
		IdleTimeout:     idle,
		TypingQuiet:     quiet,
		DestructDefault: destruct,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	switch getEnv(key, "") {
	case "1", "true", "TRUE", "True", "yes":
		return true
	case "0", "false", "FALSE", "False", "no":
		return false
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("app: invalid %s: %w", key, err)
	}
	return d, nil
}
