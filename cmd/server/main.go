package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rpattn/filterql/internal/api"
	"github.com/rpattn/filterql/internal/config"
	"github.com/rpattn/filterql/internal/db"
	"github.com/rpattn/filterql/internal/export"
	"github.com/rpattn/filterql/internal/ingestion"
	"github.com/rpattn/filterql/internal/middleware"
	"github.com/rpattn/filterql/internal/repository"

	"github.com/rs/cors"
)

func main() {
	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	dbConfig, err := config.LoadDBConfig(".")
	if err != nil {
		log.Fatalf("Failed to load database config: %v", err)
	}
	serverConfig, err := config.LoadServerConfig(".")
	if err != nil {
		log.Fatalf("Failed to load server config: %v", err)
	}

	// Setup database connection
	conn, err := db.NewConnection(ctx, dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	// Run migrations
	if err := db.RunMigrations(dbConfig, serverConfig.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create repositories
	entityRepo := repository.NewEntityRepository(conn.Pool)
	fieldRepo := repository.NewFieldCatalogRepository(conn.Pool)

	// Create services and handlers
	exportService := export.NewService(entityRepo, fieldRepo)
	ingestionService := ingestion.NewService(entityRepo, fieldRepo)

	queryHandler := api.NewQueryHandler(entityRepo, fieldRepo)
	fieldsHandler := api.NewFieldsHandler(fieldRepo)
	entitiesHandler := api.NewEntitiesHandler(entityRepo, fieldRepo)
	exportHandler := export.NewHTTPHandler(exportService)
	ingestionHandler := ingestion.NewHTTPHandler(ingestionService)

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   serverConfig.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	wrap := func(h http.Handler) http.Handler {
		return corsHandler.Handler(middleware.LoggingMiddleware(middleware.DataLoaderMiddleware(entityRepo)(h)))
	}

	http.Handle("/query", wrap(queryHandler))
	http.Handle("/fields", wrap(fieldsHandler))
	http.Handle("/entities", wrap(entitiesHandler))
	http.Handle("/export", wrap(exportHandler))
	http.Handle("/ingest", wrap(ingestionHandler))

	// Create HTTP server
	server := &http.Server{
		Addr:         serverConfig.Addr,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", serverConfig.Addr)
		log.Printf("Query endpoint available at http://localhost%s/query", serverConfig.Addr)

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
