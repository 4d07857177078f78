// lookup-server serves the reader panel in a browser.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"lookup/config"
	"lookup/fetcher"
	"lookup/page"
	"lookup/server"
	"lookup/settings"
)

var CLI struct {
	Config string `name:"config" short:"c" help:"Config file (default: ~/.config/lookup/config.toml)" type:"path"`
	Addr   string `name:"addr" short:"a" help:"Listen address (overrides [server] addr)"`
	Debug  bool   `name:"debug" help:"Log at debug level"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("lookup-server"),
		kong.Description("Serve the Wiktionary reader panel over HTTP and websockets."),
	)

	level := slog.LevelInfo
	if CLI.Debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	var cfg *config.Config
	var err error
	if CLI.Config != "" {
		cfg, err = config.LoadFile(CLI.Config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if CLI.Addr != "" {
		cfg.Server.Addr = CLI.Addr
	}

	dbPath, err := cfg.SettingsPath()
	if err != nil {
		log.Error("settings path", "error", err)
		os.Exit(1)
	}
	store, err := settings.OpenSQLite(dbPath)
	if err != nil {
		log.Error("opening settings", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	client := fetcher.New(fetcher.Options{
		APIURL:          cfg.Wiktionary.APIURL,
		PageURL:         cfg.Wiktionary.PageURL,
		SearchURL:       cfg.Wiktionary.SearchURL,
		UserAgent:       cfg.Fetcher.UserAgent,
		TimeoutSeconds:  cfg.Fetcher.TimeoutSeconds,
		ChromePath:      cfg.Fetcher.ChromePath,
		BrowserFallback: cfg.Fetcher.BrowserFallback,
	})
	srv := server.New(client, page.NewFormatter(cfg.Wiktionary.PageURL, log), store, server.Options{
		HistorySize: cfg.History.Size,
		Logger:      log,
	})

	httpServer := &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     srv,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting lookup-server", "addr", cfg.Server.Addr, "settings", dbPath)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
