// Command seed wipes the database and loads a small sample data set through
// the service layer, so the seeded orders carry real snapshot totals.
package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/alxcrm/crm-api/internal/config"
	"github.com/alxcrm/crm-api/internal/crm"
	"github.com/alxcrm/crm-api/internal/logging"
	"github.com/alxcrm/crm-api/internal/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := postgres.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		slog.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}
	if err := store.Reset(ctx); err != nil {
		slog.Error("failed to clear existing data", "error", err)
		os.Exit(1)
	}

	service := crm.NewService(store, crm.Options{})
	if err := seed(ctx, service); err != nil {
		slog.Error("seeding failed", "error", err)
		os.Exit(1)
	}
	slog.Info("database seeded successfully")
}

func seed(ctx context.Context, service *crm.Service) error {
	alice, err := service.CreateCustomer(ctx, crm.CustomerInput{
		Name: "Alice", Email: "alice@example.com", Phone: "+1234567890",
	})
	if err != nil {
		return err
	}
	bob, err := service.CreateCustomer(ctx, crm.CustomerInput{
		Name: "Bob", Email: "bob@example.com", Phone: "123-456-7890",
	})
	if err != nil {
		return err
	}

	laptop, err := service.CreateProduct(ctx, crm.ProductInput{
		Name: "Laptop", Price: "999.99", Stock: intPtr(10),
	})
	if err != nil {
		return err
	}
	phone, err := service.CreateProduct(ctx, crm.ProductInput{
		Name: "Phone", Price: "499.99", Stock: intPtr(25),
	})
	if err != nil {
		return err
	}
	tablet, err := service.CreateProduct(ctx, crm.ProductInput{
		Name: "Tablet", Price: "299.99", Stock: intPtr(15),
	})
	if err != nil {
		return err
	}

	if _, err := service.CreateOrder(ctx, crm.OrderInput{
		CustomerID: itoa(alice.ID),
		ProductIDs: []string{itoa(laptop.ID), itoa(phone.ID)},
	}); err != nil {
		return err
	}
	if _, err := service.CreateOrder(ctx, crm.OrderInput{
		CustomerID: itoa(bob.ID),
		ProductIDs: []string{itoa(tablet.ID)},
	}); err != nil {
		return err
	}
	return nil
}

func intPtr(n int) *int { return &n }

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
