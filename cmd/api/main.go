package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"infobattle.org/internal/assist"
	"infobattle.org/internal/game"
	"infobattle.org/internal/httpapi"
	"infobattle.org/internal/obs"
	"infobattle.org/internal/store/sqldb"
)

var version = "1.2.0"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("INFOBATTLE_COMMIT"))

	addr := envOr("INFOBATTLE_ADDR", ":8080")
	dialect := sqldb.Dialect(envOr("INFOBATTLE_DB_DIALECT", string(sqldb.DialectSQLite)))
	dsn := envOr("INFOBATTLE_DB_DSN", "file:infobattle.db")

	var (
		store game.Store
		probe httpapi.ReadyProbe
	)
	if os.Getenv("INFOBATTLE_DB") == "memory" {
		store = game.NewMemStore()
	} else {
		sqlStore, err := sqldb.Open(dialect, dsn)
		if err != nil {
			log.Fatalf("open store: %v", err)
		}
		defer sqlStore.Close()
		store = sqlStore
		probe = httpapi.ReadyProbe{DB: sqlStore.DB()}
	}

	svc := game.New(store)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := svc.Init(ctx); err != nil {
		cancel()
		log.Fatalf("seed catalog: %v", err)
	}
	cancel()

	assistant := assist.NewClient(
		os.Getenv("INFOBATTLE_ASSISTANT_URL"),
		os.Getenv("INFOBATTLE_ASSISTANT_MODEL"),
	)

	api := httpapi.New(svc, assistant, probe, version)

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      90 * time.Second, // assistant calls can be slow
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting infobattle-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Println("Stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
