package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rahul01879/chat-app/internal/log"
)

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func main() {
	godotenv.Load()

	port := getenv("PORT", "8080")
	level := getenv("RELAY_LOG_LEVEL", "info")
	ttl, err := time.ParseDuration(getenv("RELAY_ROOM_TTL", "2h"))
	if err != nil {
		os.Stderr.WriteString("relay: invalid RELAY_ROOM_TTL: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := log.Init(level, "", true); err != nil {
		os.Stderr.WriteString("relay: logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Flush()

	var store historyStore
	if url := os.Getenv("REDIS_URL"); url != "" {
		rs, err := newRedisStore(url)
		if err != nil {
			log.Errorf("redis: %v", err)
			os.Exit(1)
		}
		store = rs
		log.Infof("history store: redis")
	} else {
		store = newMemoryStore()
		log.Infof("history store: memory")
	}

	h := newHub(store, ttl)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.run(ctx)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      newRouter(&server{hub: h, store: store, ttl: ttl}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("listen: %v", err)
			os.Exit(1)
		}
	}()
	log.Infof("relay listening on :%s (room ttl %s)", port, ttl)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infof("shutting down")
	cancel()
	shutdownCtx, release := context.WithTimeout(context.Background(), 30*time.Second)
	defer release()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}
