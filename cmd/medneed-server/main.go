package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medneed/medneed/internal/config"
	"github.com/medneed/medneed/internal/domain/dosage"
	"github.com/medneed/medneed/internal/domain/ledger"
	"github.com/medneed/medneed/internal/domain/medicine"
	"github.com/medneed/medneed/internal/domain/patient"
	"github.com/medneed/medneed/internal/domain/reports"
	"github.com/medneed/medneed/internal/platform/bulk"
	"github.com/medneed/medneed/internal/platform/db"
	"github.com/medneed/medneed/internal/platform/middleware"
	"github.com/medneed/medneed/pkg/pagination"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medneed-server",
		Short: "Medication need tracking API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolConfig{
				MaxConns: cfg.DBMaxConns,
				MinConns: cfg.DBMinConns,
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, cfg.MigrationsDir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s)\n", count)
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolConfig{
				MaxConns: cfg.DBMaxConns,
				MinConns: cfg.DBMinConns,
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, cfg.MigrationsDir).Status(ctx)
			if err != nil {
				return err
			}
			for _, s := range statuses {
				mark := "pending"
				if s.Applied {
					mark = "applied"
				}
				fmt.Printf("%03d %-30s %s\n", s.Version, s.Name, mark)
			}
			return nil
		},
	}

	cmd.AddCommand(upCmd, statusCmd)
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [patients|medicines] <file.csv>",
		Short: "Bulk load reference data from a semicolon delimited CSV file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, path := args[0], args[1]

			logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolConfig{
				MaxConns: cfg.DBMaxConns,
				MinConns: cfg.DBMinConns,
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			loader := bulk.NewLoader(pool, cfg.BulkBatchSize, logger)
			var res bulk.Result
			switch kind {
			case "patients":
				res, err = importPatients(ctx, loader, f)
			case "medicines":
				res, err = importMedicines(ctx, loader, f)
			default:
				return fmt.Errorf("unknown import kind %q", kind)
			}
			if err != nil {
				return err
			}
			fmt.Printf("Inserted %d row(s) in %d batch(es)\n", res.Inserted, res.Batches)
			return nil
		},
	}
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert a small sample data set",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolConfig{
				MaxConns: cfg.DBMaxConns,
				MinConns: cfg.DBMinConns,
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			loader := bulk.NewLoader(pool, cfg.BulkBatchSize, logger)

			if _, err := loader.Insert(ctx, "patients",
				[]string{"fio", "birth_year", "diagnosis", "attending_doctor"},
				[][]interface{}{
					{"Иванов Иван Иванович", 1958, "ХОБЛ", "Петрова О.В."},
					{"Сидорова Анна Павловна", 1972, "ИБС", "Петрова О.В."},
					{"Кузнецов Пётр Сергеевич", 1964, "Бронхиальная астма", "Смирнов Д.А."},
				}); err != nil {
				return err
			}

			if _, err := loader.Insert(ctx, "medicines",
				[]string{"smmn_node_code", "section", "standardized_mnn", "trade_name_vk",
					"standardized_dosage_form", "standardized_dosage", "characteristic",
					"packaging", "price"},
				[][]interface{}{
					{"21.20.10.236", "Анальгетики", "Парацетамол", "Панадол",
						"таблетки", "500 мг", nil, "№10", 125.50},
					{"21.20.10.191", "Бронходилататоры", "Сальбутамол", "Вентолин",
						"аэрозоль", "100 мкг/доза", nil, "200 доз", 310.00},
					{"21.20.10.112", "НПВС", "Ибупрофен", "Нурофен",
						"таблетки", "200 мг", nil, "№20", nil},
				}); err != nil {
				return err
			}

			fmt.Println("Seed data inserted")
			return nil
		},
	}
}

func readCSV(r io.Reader, wantCols int) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = wantCols

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("file has no data rows")
	}
	// First row is the header.
	return records[1:], nil
}

func importPatients(ctx context.Context, loader *bulk.Loader, r io.Reader) (bulk.Result, error) {
	records, err := readCSV(r, 4)
	if err != nil {
		return bulk.Result{}, err
	}
	rows := make([][]interface{}, 0, len(records))
	for i, rec := range records {
		year, err := strconv.Atoi(strings.TrimSpace(rec[1]))
		if err != nil {
			return bulk.Result{}, fmt.Errorf("row %d: invalid birth_year %q", i+2, rec[1])
		}
		rows = append(rows, []interface{}{rec[0], year, rec[2], rec[3]})
	}
	return loader.Insert(ctx, "patients",
		[]string{"fio", "birth_year", "diagnosis", "attending_doctor"}, rows)
}

func importMedicines(ctx context.Context, loader *bulk.Loader, r io.Reader) (bulk.Result, error) {
	records, err := readCSV(r, 9)
	if err != nil {
		return bulk.Result{}, err
	}
	rows := make([][]interface{}, 0, len(records))
	for i, rec := range records {
		var price interface{}
		if v := strings.TrimSpace(rec[8]); v != "" {
			p, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
			if err != nil {
				return bulk.Result{}, fmt.Errorf("row %d: invalid price %q", i+2, rec[8])
			}
			price = p
		}
		var characteristic interface{}
		if rec[6] != "" {
			characteristic = rec[6]
		}
		rows = append(rows, []interface{}{
			rec[0], rec[1], rec[2], rec[3], rec[4], rec[5], characteristic, rec[7], price,
		})
	}
	return loader.Insert(ctx, "medicines",
		[]string{"smmn_node_code", "section", "standardized_mnn", "trade_name_vk",
			"standardized_dosage_form", "standardized_dosage", "characteristic",
			"packaging", "price"}, rows)
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	pagination.Configure(cfg.DefaultPageSize, cfg.MaxPageSize)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolConfig{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.MaxBodySize))
	e.Use(middleware.RequestTimeout(time.Duration(cfg.RequestTimeout) * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))
	e.Use(db.SessionMiddleware(pool))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	api := e.Group("/api/v1")

	rateCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateCfg.RequestsPerSecond <= 0 {
		rateCfg = middleware.DefaultRateLimitConfig()
	}
	api.Use(middleware.RateLimit(rateCfg))

	runner := db.NewRunner(pool)

	patientSvc := patient.NewService(patient.NewRepoPG(pool))
	patient.NewHandler(patientSvc).RegisterRoutes(api)

	medicineSvc := medicine.NewService(medicine.NewRepoPG(pool))
	medicine.NewHandler(medicineSvc).RegisterRoutes(api)

	ledgerSvc := ledger.NewService(
		ledger.NewPrescriptionRepoPG(pool),
		ledger.NewDispensingRepoPG(pool),
		patientSvc,
		medicineSvc,
		runner,
	)
	ledger.NewHandler(ledgerSvc).RegisterRoutes(api)

	reportsSvc := reports.NewService(reports.NewStorePG(pool))
	reports.NewHandler(reportsSvc).RegisterRoutes(api)

	dosageSvc := dosage.NewService(medicineSvc)
	dosage.NewHandler(dosageSvc).RegisterRoutes(api)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
