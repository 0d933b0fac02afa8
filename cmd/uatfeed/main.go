// Command uatfeed consumes decoded 978 MHz UAT messages, tracks
// per-aircraft state, and republishes it as a rate-limited TSV feed on
// stdout, with an optional HTTP status API, live websocket mirror, and
// PostgreSQL report archive.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unklstewy/uatfeed/internal/api"
	"github.com/unklstewy/uatfeed/internal/auth"
	"github.com/unklstewy/uatfeed/internal/db"
	"github.com/unklstewy/uatfeed/internal/feed"
	"github.com/unklstewy/uatfeed/internal/ingest"
	"github.com/unklstewy/uatfeed/internal/report"
	"github.com/unklstewy/uatfeed/internal/tracker"
	"github.com/unklstewy/uatfeed/pkg/config"
	"github.com/unklstewy/uatfeed/pkg/uat"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	stdinMode := flag.Bool("stdin", false, "Read decoded messages from stdin instead of the configured TCP source")
	issueToken := flag.String("issue-token", "", "Print an API bearer token for the named client and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *issueToken != "" {
		if cfg.API.JWTSecret == "" {
			log.Fatal("Cannot issue token: no API JWT secret configured")
		}
		svc := auth.NewService(auth.Config{JWTSecret: cfg.API.JWTSecret})
		token, err := svc.GenerateToken(*issueToken)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	log.Println("===========================================")
	log.Println("  uatfeed UAT surveillance feeder")
	log.Println("===========================================")
	log.Printf("Configuration loaded from: %s", *configPath)
	log.Printf("Report interval: %v, aircraft timeout: %v, slow refresh: %v",
		cfg.Reporter.Interval(), cfg.Reporter.Timeout(), cfg.Reporter.SlowRefresh())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := tracker.New(cfg.Reporter.Timeout())
	hub := feed.NewHub()

	rep := report.New(report.Config{
		Interval:     cfg.Reporter.Interval(),
		Timeout:      cfg.Reporter.Timeout(),
		SlowInterval: cfg.Reporter.SlowRefresh(),
	}, tr, os.Stdout, nil)
	rep.AddSink(hub)

	// Optional report archive
	if cfg.Database.Enabled {
		database, err := db.ConnectWithRetry(cfg.Database, 5, time.Second)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()

		if err := database.InitSchema(ctx); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		log.Println("Report archive enabled")

		sink := db.NewSink(db.NewReportRepository(database))
		rep.AddSink(sink)
		go sink.Run(ctx)
	}

	// Message intake
	handler := func(msg uat.Message, now time.Time) {
		tr.Update(msg, now)
	}

	var ingestClient *ingest.Client
	if *stdinMode || cfg.Input.Source == "stdin" {
		log.Println("Reading decoded messages from stdin")
		ingestClient = ingest.NewClient("", 0, handler)
		go func() {
			if err := ingestClient.RunReader(ctx, os.Stdin); err != nil && ctx.Err() == nil {
				log.Printf("Stdin input error: %v", err)
			}
			// EOF on stdin ends the daemon
			cancel()
		}()
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Input.Host, cfg.Input.Port)
		log.Printf("Reading decoded messages from %s", addr)
		maxDelay := time.Duration(cfg.Input.ReconnectMaxSeconds * float64(time.Second))
		ingestClient = ingest.NewClient(addr, maxDelay, handler)
		go func() {
			if err := ingestClient.Run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("Message intake stopped: %v", err)
				cancel()
			}
		}()
	}

	// Optional HTTP API
	var httpServer *http.Server
	if cfg.API.Enabled {
		srv := api.NewServer(cfg.API, tr, rep, ingestClient, hub)
		httpServer = &http.Server{
			Addr:         net.JoinHostPort(cfg.API.Host, cfg.API.Port),
			Handler:      srv.Handler(),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0, // the feed endpoint streams indefinitely
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Printf("API listening on %s", httpServer.Addr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("API server failed: %v", err)
			}
		}()
	}

	// The reporter owns the feed; a write error on the output stream is
	// fatal for the whole process.
	repErr := make(chan error, 1)
	go func() {
		repErr <- rep.Run(ctx)
	}()

	log.Println("Feeder started, press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-repErr:
		if err != nil && ctx.Err() == nil {
			log.Printf("Reporter stopped: %v", err)
		}
	}

	log.Println("Shutting down gracefully...")
	cancel()

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("API server forced to shut down: %v", err)
		}
	}

	log.Println("Feeder stopped")
}
