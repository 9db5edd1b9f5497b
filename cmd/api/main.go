// cmd/api/main.go
// Main entry point for the discovery service.
// Bootstraps storage, the discovery engine, and the HTTP server.

package main

import (
    "context"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"

    "github.com/gorilla/mux"
    "github.com/joho/godotenv"
    "github.com/prometheus/client_golang/prometheus/promhttp"

    "github.com/admnberse-app/berse-backend-sub010/internal/auth"
    "github.com/admnberse-app/berse-backend-sub010/internal/common/database"
    "github.com/admnberse-app/berse-backend-sub010/internal/config"
    "github.com/admnberse-app/berse-backend-sub010/internal/discovery"
)

func main() {
    log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

    log.Println("Starting Berse discovery service")

    // 1. Load environment variables
    if err := godotenv.Load(); err != nil {
        log.Printf("No .env file found (%v), using environment variables", err)
    }

    // 2. Load and validate configuration
    cfg := config.Load()
    if err := cfg.Validate(); err != nil {
        log.Fatal("Configuration validation failed: ", err)
    }

    // 3. Connect to PostgreSQL
    db, err := database.NewPostgresDB(cfg.DatabaseURL)
    if err != nil {
        log.Fatal("Failed to connect to PostgreSQL: ", err)
    }
    defer db.Close()
    log.Println("Connected to PostgreSQL")

    // 4. Session store backend
    var sessions discovery.SessionStore
    switch cfg.SessionStore {
    case "redis":
        client, err := database.NewRedisClient(cfg.RedisURL)
        if err != nil {
            log.Fatal("Failed to connect to Redis: ", err)
        }
        defer client.Close()
        sessions = discovery.NewRedisSessionStore(client, cfg.SessionTTL)
        log.Println("Using Redis session store")
    case "memory":
        sessions = discovery.NewMemorySessionStore()
        log.Println("Using in-memory session store (development only)")
    default:
        sessions = discovery.NewPostgresSessionStore(db)
        log.Println("Using Postgres session store")
    }

    // 5. Wire the discovery engine
    directory := discovery.NewPostgresDirectory(db)
    relationships := discovery.NewPostgresRelationshipRegistry(db)
    swipes := discovery.NewPostgresSwipeLog(db)

    service := discovery.NewService(directory, relationships, swipes, sessions)
    handler := discovery.NewHandler(service)

    // 6. Router
    router := mux.NewRouter()
    router.Handle("/metrics", promhttp.Handler()).Methods("GET")
    router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusOK)
        w.Write([]byte(`{"status":"ok"}`))
    }).Methods("GET")

    authMiddleware := auth.NewMiddleware(cfg.JWTSecret)
    discovery.RegisterRoutes(router, handler, authMiddleware)

    // 7. Start server with graceful shutdown
    server := &http.Server{
        Addr:    ":" + cfg.Port,
        Handler: router,
    }

    go func() {
        log.Printf("Listening on :%s (%s)", cfg.Port, cfg.Environment)
        if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatal("Server error: ", err)
        }
    }()

    quit := make(chan os.Signal, 1)
    signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
    <-quit

    log.Println("Shutting down...")
    ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
    defer cancel()

    if err := server.Shutdown(ctx); err != nil {
        log.Fatal("Forced shutdown: ", err)
    }

    log.Println("Server stopped")
}
