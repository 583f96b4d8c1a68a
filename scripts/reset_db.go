// Command reset_db empties the catalogue and order tables for a fresh test
// run. Identities and admin memberships survive unless -all is given.
//
//	go run ./scripts -yes
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"market-admin/internal/config"
	"market-admin/internal/db"
	"market-admin/internal/logger"
)

// Children before parents; TRUNCATE ... CASCADE handles the rest.
var dataTables = []string{
	"order_items",
	"orders",
	"item_submissions",
	"products",
	"admin_activity_log",
	"auth_sessions",
}

var identityTables = []string{"admin_users", "auth_users"}

func main() {
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	all := flag.Bool("all", false, "also delete identities and admin memberships")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, "text")

	tables := dataTables
	if *all {
		tables = append(tables, identityTables...)
	}

	fmt.Printf("This will DELETE ALL ROWS in %s on %s/%s\n",
		strings.Join(tables, ", "), cfg.Database.Host, cfg.Database.Name)
	if !*yes && !confirm() {
		fmt.Println("Reset cancelled.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Unable to connect to database")
	}
	defer pool.Close()

	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, table := range tables {
			if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+pgx.Identifier{table}.Sanitize()+" CASCADE"); err != nil {
				return fmt.Errorf("truncate %s: %w", table, err)
			}
			log.WithField("table", table).Info("Cleared")
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Fatal("Reset failed, nothing was changed")
	}

	fmt.Println("Database reset successful.")
	if *all {
		fmt.Println("Create an admin with: create-admin <email> <password>")
	}
}

func confirm() bool {
	fmt.Print("Type 'yes' to confirm: ")
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(line) == "yes"
}
