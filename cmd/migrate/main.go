package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"ms-payment/internal/config"
	"ms-payment/internal/database/migrations"
	"ms-payment/internal/logger"
	"ms-payment/internal/payment/storage"
)

func main() {
	command := flag.String("cmd", "up", "up, down, steps, version or seed")
	steps := flag.Int("n", 1, "number of steps for -cmd steps, negative to roll back")
	dir := flag.String("dir", "", "migrations directory (default MIGRATIONS_DIR)")
	flag.Parse()

	log := logger.NewLogger("payment-migrate")
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()
	if *dir == "" {
		*dir = cfg.MigrationsDir
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN())))
	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to database: %v", err))
	}

	if *command == "seed" {
		os.Exit(seed(cfg, sqldb, log))
	}

	runner := migrations.NewRunner(sqldb, *dir, log)
	defer runner.Close()

	var err error
	switch *command {
	case "up":
		err = runner.Up()
	case "down":
		err = runner.Down()
	case "steps":
		err = runner.Steps(*steps)
	case "version":
		var version uint
		var dirty bool
		version, dirty, err = runner.Version()
		if err == nil {
			fmt.Printf("version=%d dirty=%t\n", version, dirty)
		}
	default:
		err = fmt.Errorf("unknown command %q", *command)
	}
	if err != nil {
		log.Error("MIGRATION", err.Error())
		runner.Close()
		os.Exit(1)
	}
	log.Info("MIGRATION", fmt.Sprintf("%s done", *command))
}

// seed stores the payment method configured in the environment.
func seed(cfg *config.Config, sqldb *sql.DB, log *logger.Logger) int {
	store := storage.NewBunStore(bun.NewDB(sqldb, pgdialect.New()), log)
	defer store.Close()

	method := cfg.Adyen.Method
	if err := store.SavePaymentMethod(context.Background(), &method); err != nil {
		log.Error("MIGRATION", fmt.Sprintf("Failed to seed payment method %s: %v", method.ID, err))
		return 1
	}
	log.Info("MIGRATION", fmt.Sprintf("Seeded payment method %+v", method.Redacted()))
	return 0
}
