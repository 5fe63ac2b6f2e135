package main

import (
	"context"
	"embed"
	"flag"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"messprotokoll/internal/config"
	"messprotokoll/internal/handler"
	"messprotokoll/internal/hub"
	"messprotokoll/internal/repository/sqlite"
	"messprotokoll/internal/service"
	"messprotokoll/internal/sheet"
	"messprotokoll/internal/tolerance"
	"messprotokoll/internal/watcher"
)

//go:embed web/*
var webFS embed.FS

func main() {
	// Command line flags override the config file
	addr := flag.String("addr", "", "HTTP listen address")
	dbPath := flag.String("db", "", "SQLite database path")
	dataDir := flag.String("data", "", "directory holding the tolerance table")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Messprotokoll server...")

	cfg, cfgPath, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfgPath != "" {
		log.Printf("Config loaded from %s", cfgPath)
	}
	if *addr != "" {
		cfg.Listen = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}

	// No tolerance table means no usable fit lookups; refuse to start.
	resolver, err := tolerance.Load(cfg.Data.Dir)
	if err != nil {
		log.Fatalf("Failed to load tolerance table: %v", err)
	}
	log.Printf("Tolerance table loaded: %s (%d entries)", resolver.Path(), resolver.Len())

	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer repo.Close()
	log.Printf("Database opened: %s", cfg.Database.Path)

	// Initialize event bus
	eventBus := service.NewEventBus()

	// Initialize SSE hub and connect it to the event bus
	sseHub := hub.New()
	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	go func() {
		for event := range eventChan {
			sseHub.Broadcast(event)
		}
	}()

	// Reload the tolerance table when the file changes on disk
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	tableWatcher := watcher.New(resolver.Path(), func() {
		if err := resolver.Reload(); err != nil {
			log.Printf("Tolerance table reload failed, keeping previous table: %v", err)
			return
		}
		log.Printf("Tolerance table reloaded (%d entries)", resolver.Len())
		eventBus.Publish(service.Event{
			Type:    service.EventTableReloaded,
			Payload: map[string]int{"entries": resolver.Len()},
		})
	})
	go func() {
		if err := tableWatcher.Watch(watchCtx); err != nil && watchCtx.Err() == nil {
			log.Printf("Tolerance table watcher stopped: %v", err)
		}
	}()

	// Initialize services
	protocolSvc := service.NewProtocolService(repo, resolver, eventBus)
	drawingSvc := service.NewDrawingService(eventBus)

	// The cell map is optional; without it the xlsx routes answer 503.
	cellMap, err := sheet.LoadCellMap(cfg.Sheet.CellMap)
	if err != nil {
		log.Printf("Warning: cell map unavailable, sheet export disabled: %v", err)
		cellMap = nil
	}

	// Initialize HTTP handlers
	protocolHandler := handler.NewProtocolHandler(protocolSvc, resolver)
	drawingHandler := handler.NewDrawingHandler(drawingSvc)
	sheetHandler := handler.NewSheetHandler(protocolSvc, cellMap, cfg.Sheet.Template, cfg.Sheet.ExportDir)

	// Setup routes
	mux := http.NewServeMux()

	// Form metadata
	mux.HandleFunc("GET /api/meta", protocolHandler.Meta)

	// Protocol endpoints
	mux.HandleFunc("GET /api/protocols", protocolHandler.ListProtocols)
	mux.HandleFunc("POST /api/protocols", protocolHandler.CreateProtocol)
	mux.HandleFunc("GET /api/protocols/{id}", protocolHandler.GetProtocol)
	mux.HandleFunc("PUT /api/protocols/{id}", protocolHandler.UpdateProtocol)
	mux.HandleFunc("DELETE /api/protocols/{id}", protocolHandler.DeleteProtocol)
	mux.HandleFunc("POST /api/protocols/{id}/slots/{index}/fit", protocolHandler.ApplyFit)

	// Tolerance lookup
	mux.HandleFunc("GET /api/tolerances/resolve", protocolHandler.ResolveTolerance)

	// Drawing endpoints
	mux.HandleFunc("POST /api/drawing", drawingHandler.LoadDrawing)
	mux.HandleFunc("GET /api/drawing", drawingHandler.GetDrawing)
	mux.HandleFunc("POST /api/drawing/pick/dimension", drawingHandler.PickDimension)
	mux.HandleFunc("POST /api/drawing/pick/text", drawingHandler.PickText)

	// Workbook export/import
	mux.HandleFunc("POST /api/protocols/{id}/sheet", sheetHandler.ExportSheet)
	mux.HandleFunc("POST /api/import/sheet", sheetHandler.ImportSheet)

	// Protocol file export/import (json, yaml)
	mux.HandleFunc("GET /api/protocols/{id}/file/{format}", sheetHandler.ExportProtocolFile)
	mux.HandleFunc("POST /api/import/{format}", sheetHandler.ImportProtocolFile)

	// SSE events endpoint
	mux.Handle("GET /events", sseHub)

	// Static files from embedded filesystem
	webContent, err := fs.Sub(webFS, "web")
	if err != nil {
		log.Fatalf("Failed to get embedded web content: %v", err)
	}
	mux.Handle("/", http.FileServer(http.FS(webContent)))

	// Apply middleware
	finalHandler := handler.Chain(mux,
		handler.Recover,
		handler.CORS,
		handler.Logger,
	)

	// Create server
	server := &http.Server{
		Addr:         cfg.Listen,
		Handler:      finalHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Listen)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	watchCancel()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
