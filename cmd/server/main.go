package main

import (
	"context"
	"errors"
	"fmt"
	"go-sessiond/internal/config"
	"go-sessiond/internal/handler"
	"go-sessiond/internal/logger"
	"go-sessiond/internal/session"
	"go-sessiond/internal/store"
	"go-sessiond/internal/worker"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig()
	if err != nil {
		// Use fmt.Printf here because the logger is not yet initialized.
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Initialization ---
	log := logger.New(cfg.Log, nil)

	// --- Session Store Setup ---
	log.Info(fmt.Sprintf("Opening %q session store...", cfg.Store.Driver))
	sessionStore, closer, err := store.New(cfg.Store)
	if err != nil {
		log.Fatal(err, "Failed to open session store")
	}
	defer closer.Close()
	log.Info("Session store ready.")

	// --- Session Engine Setup ---
	params, err := session.ParamsFromConfig(cfg.Session)
	if err != nil {
		log.Fatal(err, "Invalid session cookie configuration")
	}
	engine, err := session.NewEngine(sessionStore, params,
		session.WithIdleTimeout(time.Duration(cfg.Session.GCMaxLifetime)*time.Second),
		session.WithMaxLifetime(time.Duration(cfg.Session.MaxLifetime)*time.Second),
	)
	if err != nil {
		log.Fatal(err, "Failed to initialize session engine")
	}

	// Cookie parameters follow the config file without a restart.
	config.Watch(func(updated *config.Config, err error) {
		if err != nil {
			log.Error(err, "Failed to reload configuration")
			return
		}
		params, err := session.ParamsFromConfig(updated.Session)
		if err == nil {
			err = engine.SetCookieParams(params)
		}
		if err != nil {
			log.Error(err, "Ignoring invalid session cookie configuration")
			return
		}
		log.Info("Session cookie parameters reloaded.")
	})

	// --- Router Setup ---
	wk := worker.New(engine, log)
	router := handler.NewRouter(wk, handler.NewCounterHandler(engine))

	// --- Server Initialization and Graceful Shutdown ---
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}
	go func() {
		if cfg.Server.TLS.Enabled {
			log.Info(fmt.Sprintf("Starting HTTPS server on %s", server.Addr))
			if err := server.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTPS server")
			}
		} else {
			log.Info(fmt.Sprintf("Starting HTTP server on %s", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTP server")
			}
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Warn("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal(err, "Server forced to shutdown")
	}
	log.Info("Server exiting")
}
