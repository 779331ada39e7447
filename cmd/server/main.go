package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lanwatch/internal/config"
	"lanwatch/internal/handler"
	"lanwatch/internal/hub"
	"lanwatch/internal/monitor"
	"lanwatch/internal/probe"
	"lanwatch/internal/repository/sqlite"
	"lanwatch/internal/scan"
	"lanwatch/internal/store"
)

func main() {
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite snapshot path (overrides config, empty disables)")
	configPath := flag.String("config", "", "config file path (overrides search)")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting lanwatch server...")

	cfg, loadedFrom, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if loadedFrom != "" {
		log.Printf("Config loaded: %s", loadedFrom)
	}
	if *addr != "" {
		cfg.Listen = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	deviceStore := store.New()

	// Optional snapshot persistence
	if cfg.Database.Path != "" {
		repo, err := sqlite.New(cfg.Database.Path)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer repo.Close()
		log.Printf("Database opened: %s", cfg.Database.Path)

		devices, err := repo.ListDevices(context.Background())
		if err != nil {
			log.Fatalf("Failed to load device snapshot: %v", err)
		}
		deviceStore.Load(devices)
		deviceStore.SetSnapshotter(repo)
		log.Printf("Loaded %d devices from snapshot", len(devices))
	}

	prober := probe.New(selectPinger(cfg))

	eventHub := hub.New(deviceStore)
	go eventHub.Run()

	sweeper := scan.New(deviceStore, prober, eventHub, scan.Config{
		MaxConcurrent: cfg.Scan.MaxConcurrent,
	})

	reconciler := monitor.New(deviceStore, prober, eventHub, monitor.Config{
		Interval:      time.Duration(cfg.Monitor.IntervalSeconds) * time.Second,
		MaxConcurrent: cfg.Monitor.MaxConcurrent,
	})
	reconciler.Start()

	deviceHandler := handler.NewDeviceHandler(deviceStore, sweeper, prober)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/network-info", deviceHandler.GetNetworkInfo)
	mux.HandleFunc("POST /api/scan", deviceHandler.TriggerScan)
	mux.HandleFunc("GET /api/devices", deviceHandler.ListDevices)
	mux.HandleFunc("GET /api/devices/{address}", deviceHandler.GetDevice)
	mux.HandleFunc("POST /api/ping/{address}", deviceHandler.PingDevice)
	mux.Handle("GET /ws", eventHub)

	finalHandler := handler.Chain(mux,
		handler.Recover,
		handler.CORS,
		handler.Logger,
	)

	// No WriteTimeout, it would cut long-lived websocket connections
	server := &http.Server{
		Addr:        cfg.Listen,
		Handler:     finalHandler,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", cfg.Listen)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	reconciler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// selectPinger picks the sweep backend. The nmap engine falls back to plain
// dialing when the binary is missing rather than refusing to start.
func selectPinger(cfg *config.Config) probe.Pinger {
	timeout := time.Duration(cfg.Scan.TimeoutSeconds) * time.Second

	if cfg.Scan.Engine == config.EngineNmap {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if probe.Available(ctx) {
			log.Println("Scan engine: nmap")
			return probe.NewNmapPinger(timeout)
		}
		log.Println("nmap not available, falling back to dial engine")
	}

	log.Println("Scan engine: dial")
	return probe.NewDialPinger(timeout)
}
