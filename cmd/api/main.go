package main

import (
	"net/http"
	"os"
	"time"

	"petsit-admin/internal/adapters/auth/gotrue"
	"petsit-admin/internal/platform/logger"
	"petsit-admin/internal/ports/auth"
	"petsit-admin/internal/router"
)

func main() {
	log := logger.NewFromEnv()

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	// Sin AUTH_BASE_URL queda en modo dev (X-Debug-User-ID).
	var verifier auth.AuthVerifier
	if baseURL := os.Getenv("AUTH_BASE_URL"); baseURL != "" {
		client, err := gotrue.NewClient(gotrue.Config{
			BaseURL: baseURL,
			APIKey:  os.Getenv("AUTH_API_KEY"),
		})
		if err != nil {
			log.Error("invalid auth config", logger.Err(err))
			os.Exit(1)
		}
		verifier = gotrue.NewVerifier(client)
	}

	r := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		Log:          log,
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info("starting server", map[string]any{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", logger.Err(err))
		os.Exit(1)
	}
}
