package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"restaurant-pos/internal/api"
	"restaurant-pos/internal/app/display"
	"restaurant-pos/internal/audit"
	"restaurant-pos/internal/auth"
	"restaurant-pos/internal/common/httpx"
	"restaurant-pos/internal/common/logger"
	"restaurant-pos/internal/config"
	"restaurant-pos/internal/connections/database"
	"restaurant-pos/internal/connections/rabbitmq"
	"restaurant-pos/internal/domain"
	"restaurant-pos/internal/events"
	"restaurant-pos/internal/idempotency"
	"restaurant-pos/internal/repository"
	"restaurant-pos/internal/repository/memory"
	"restaurant-pos/internal/repository/postgres"
	"restaurant-pos/internal/service/order"
	"restaurant-pos/internal/service/payment"
	"restaurant-pos/internal/service/shift"
	"restaurant-pos/internal/service/table"
)

func main() {
	root := &cobra.Command{
		Use:           "restaurant-pos",
		Short:         "restaurant order fulfillment and reconciliation backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(apiCommand(), displayCommand(), migrateCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func apiCommand() *cobra.Command {
	var dev bool
	cmd := &cobra.Command{
		Use:   "api",
		Short: "run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dev {
				cfg.Dev = true
			}
			lg := logger.NewWithLevel("api", cfg.LogLevel)
			ctx, cancel := signalContext()
			defer cancel()

			var (
				store repository.Store
				pub   events.Publisher = events.Noop{}
				sink  audit.Sink       = audit.Noop{}
			)
			if cfg.Dev {
				mem := memory.New()
				seedDev(mem, lg)
				store = mem
				lg.Info("dev_mode", map[string]any{"store": "memory"})
			} else {
				db, err := database.Connect(ctx, cfg.Database)
				if err != nil {
					return err
				}
				defer db.Close()
				pg := postgres.New(db)
				store = pg
				sink = audit.NewStoreSink(pg)

				rmq, err := rabbitmq.Dial(cfg.RabbitMQ)
				if err != nil {
					return err
				}
				defer rmq.Close()
				if err := rmq.DeclareTopology(); err != nil {
					return err
				}
				pub = events.NewAMQPPublisher(rmq)
			}

			tables := table.New(store, pub, lg)
			orders := order.New(store, tables, pub, sink, lg, cfg.TaxRateBps)
			payments := payment.New(store, tables, pub, sink, lg)
			shifts := shift.New(store, auth.ClaimsAuthorizer{}, pub, sink, lg, cfg.CashVarianceThreshold)
			guard := idempotency.NewGuard(store, lg)

			srv := api.NewServer(api.Deps{
				Orders:    orders,
				Payments:  payments,
				Shifts:    shifts,
				Tables:    tables,
				Guard:     guard,
				JWTSecret: cfg.JWTSecret,
				Dev:       cfg.Dev,
				Logger:    lg,
			})
			addr := fmt.Sprintf(":%d", cfg.HTTPPort)
			lg.Info("api_listening", map[string]any{"addr": addr})
			return httpx.New(addr, srv.Router()).Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&dev, "dev", false, "run on the in-memory store, no Postgres or RabbitMQ")
	return cmd
}

// seedDev puts enough fixtures in the memory store to exercise the API.
func seedDev(mem *memory.Store, lg *logger.Logger) {
	p1 := mem.SeedProduct(domain.Product{Name: "Margherita", Price: 8500, Active: true})
	p2 := mem.SeedProduct(domain.Product{Name: "Espresso", Price: 1500, Active: true})
	t1 := mem.SeedTable(domain.RestaurantTable{Number: 1, Status: domain.TableAvailable})
	sh := mem.SeedShift(domain.Shift{StaffID: 1, TerminalID: "dev-1", StartTime: time.Now().UTC()})
	lg.Info("dev_seeded", map[string]any{
		"products": []int64{p1.ID, p2.ID}, "table_id": t1.ID, "shift_id": sh.ID,
	})
}

func displayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "kitchen-display",
		Short: "run the kitchen display event consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			lg := logger.NewWithLevel("kitchen-display", cfg.LogLevel)
			ctx, cancel := signalContext()
			defer cancel()

			rmq, err := rabbitmq.Dial(cfg.RabbitMQ)
			if err != nil {
				return err
			}
			defer rmq.Close()
			if err := rmq.DeclareTopology(); err != nil {
				return err
			}
			return display.New(rmq, lg).Run(ctx)
		},
	}
}

func migrateCommand() *cobra.Command {
	var down bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			lg := logger.NewWithLevel("migrate", cfg.LogLevel)
			m, err := migrate.New(
				fmt.Sprintf("file://%s", cfg.MigrationsDir),
				fmt.Sprintf("pgx5://%s:%s@%s:%d/%s?sslmode=disable",
					cfg.Database.User, cfg.Database.Password,
					cfg.Database.Host, cfg.Database.Port, cfg.Database.Name),
			)
			if err != nil {
				return err
			}
			defer m.Close()
			if down {
				err = m.Down()
			} else {
				err = m.Up()
			}
			if errors.Is(err, migrate.ErrNoChange) {
				lg.Info("migrate_no_change", nil)
				return nil
			}
			if err != nil {
				return err
			}
			lg.Info("migrate_done", map[string]any{"down": down})
			return nil
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "roll the schema all the way down")
	return cmd
}
