package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	clientDir := flag.String("client", "", "Path to client directory (default: ../client)")
	dbPath := flag.String("db", "spacebattle.db", "Path to SQLite database ('' disables accounts)")
	logPath := flag.String("log", "server.log", "Path to log file ('' for stderr only)")
	durationMs := flag.Float64("duration", 0, "Match duration override in ms")
	meteors := flag.Int("meteors", 0, "Meteor count override")
	suddenDeath := flag.Bool("sudden-death", false, "End the match on the first ship-meteor impact")
	flag.Parse()

	InitLogger(*logPath)
	defer SyncLogger()

	if *clientDir == "" {
		exe, _ := os.Executable()
		*clientDir = filepath.Join(filepath.Dir(exe), "..", "client")
		// Fallback for development
		if _, err := os.Stat(*clientDir); os.IsNotExist(err) {
			*clientDir = "../client"
		}
	}

	settings := DefaultSettings()
	if *durationMs > 0 {
		settings.GameDurationMs = *durationMs
	}
	if *meteors > 0 {
		settings.MeteorCount = *meteors
	}
	if *suddenDeath {
		settings.Mode = ModeSuddenDeath
	}

	var db *DB
	if *dbPath != "" {
		var err error
		db, err = OpenDB(*dbPath)
		if err != nil {
			Log.Fatalw("open database", "path", *dbPath, "err", err)
		}
		defer db.Close()
	}

	hub := NewHub(db, settings)
	go hub.Run()

	mux := SetupRoutes(hub, *clientDir)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		Log.Infow("server starting", "addr", *addr, "client", *clientDir)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			Log.Fatalw("listen", "err", err)
		}
	}()

	<-stop
	Log.Info("shutting down...")
	server.Close()
	if hub.stats != nil {
		hub.stats.Stop()
	}
}
