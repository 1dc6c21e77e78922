package main

import (
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/teamvote/elections/cliparse"
	"github.com/teamvote/elections/db"
	"github.com/teamvote/elections/directory"
	"github.com/teamvote/elections/election"
	"github.com/teamvote/elections/models"
	"github.com/teamvote/elections/notify"
	"github.com/teamvote/elections/router"
)

func main() {
	var err error

	// Load .env if present; real env variables win
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded .env file")
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Connect to the database
	driver := "sqlite"
	if cfg.DatabaseType == "postgres" {
		driver = "postgres"
	}
	dbConn, err := sql.Open(driver, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()
	if driver == "sqlite" {
		// modernc.org/sqlite serializes writes; a single connection avoids
		// SQLITE_BUSY under concurrent transactions
		dbConn.SetMaxOpenConns(1)
	}

	// Verify connection
	if err := dbConn.Ping(); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready")

	// Wire the election machinery
	dir := directory.New(dbConn)
	machine := election.NewMachine(dbConn, dir, dir, notify.NewLogNotifier())

	// One-shot mode for cron: sweep pending milestones and exit
	if cfg.AdvanceOnce {
		today := time.Now().Format(models.DateLayout)
		if err := election.Advance(dbConn, machine, today); err != nil {
			slog.Error("advance pass failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Advance pass complete", "date", today)
		return
	}

	// Daily advance sweep alongside the server
	go advanceDaily(dbConn, machine)

	// Create router
	mux := router.NewRouter(dbConn, cfg, machine, dir)

	// Create server
	server := http.Server{
		Handler: mux,
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

// advanceDaily runs one sweep at startup and again every 24 hours. Missed
// days are safe: the advancer compares dates with <=, so the next sweep
// catches up.
func advanceDaily(dbConn *sql.DB, machine *election.Machine) {
	for {
		today := time.Now().Format(models.DateLayout)
		if err := election.Advance(dbConn, machine, today); err != nil {
			slog.Error("advance sweep failed", "error", err)
		}
		time.Sleep(24 * time.Hour)
	}
}
