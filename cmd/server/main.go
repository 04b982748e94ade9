package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/taskgrid/taskgrid/internal/config"
	"github.com/taskgrid/taskgrid/internal/db"
	"github.com/taskgrid/taskgrid/internal/export"
	"github.com/taskgrid/taskgrid/internal/grid"
	"github.com/taskgrid/taskgrid/internal/middleware"
	"github.com/taskgrid/taskgrid/internal/repository"
)

func main() {
	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup database connection
	conn, err := db.NewConnection(ctx, cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.DB, cfg.Server.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create repositories
	fieldRepo := repository.NewFieldRepository(conn.Pool)
	taskRepo := repository.NewTaskRepository(conn.Pool)

	// Create services
	gridService := grid.NewService(fieldRepo, taskRepo)
	exportService := export.NewService(gridService)

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	gridHandler := middleware.LoggingMiddleware(grid.NewHTTPHandler(gridService))
	exportHandler := middleware.LoggingMiddleware(export.NewHTTPHandler(exportService))

	mux := http.NewServeMux()
	mux.Handle("/grid", corsHandler.Handler(gridHandler))
	mux.Handle("/grid/", corsHandler.Handler(gridHandler))
	mux.Handle("/exports/tasks", corsHandler.Handler(exportHandler))

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting grid server on %s", cfg.Server.Addr)
		log.Printf("Grid endpoint available at http://localhost%s/grid", cfg.Server.Addr)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
