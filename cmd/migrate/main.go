package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"infobattle.org/internal/store/sqldb"
)

func main() {
	log.SetFlags(0)
	_ = godotenv.Load()

	var (
		dialect = flag.String("dialect", envOr("INFOBATTLE_DB_DIALECT", "sqlite"), "Database dialect (sqlite or postgres)")
		dsn     = flag.String("dsn", envOr("INFOBATTLE_DB_DSN", "file:infobattle.db"), "Database DSN")
	)
	flag.Parse()

	if len(flag.Args()) == 0 {
		log.Fatal("usage: migrate [up|status|pending]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Open applies pending migrations before returning.
	store, err := sqldb.Open(sqldb.Dialect(*dialect), *dsn)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	mgr := store.Migrator()

	switch flag.Arg(0) {
	case "up":
		err = mgr.Up(ctx)
	case "status":
		var history []string
		history, err = mgr.Status(ctx)
		if err == nil {
			for _, item := range history {
				fmt.Println(item)
			}
		}
	case "pending":
		var names []string
		names, err = mgr.Pending(ctx)
		if err == nil {
			for _, name := range names {
				fmt.Println(name)
			}
		}
	default:
		log.Fatalf("unknown command %q", flag.Arg(0))
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", flag.Arg(0), err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
