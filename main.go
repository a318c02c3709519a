package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"medshop/m/internal/api"
	"medshop/m/internal/config"
	"medshop/m/internal/dashboard"
	"medshop/m/internal/database"
	"medshop/m/internal/logger"
	"medshop/m/internal/migrations"
	"medshop/m/internal/registration"
	"medshop/m/internal/repository"
	"medshop/m/internal/seed"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "medshop",
		Short:        "Medical shop patient reminder dashboard",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(hashPasswordCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads the configuration, builds the logger and connects to the
// store with the schema in place.
func bootstrap(ctx context.Context) (*config.Config, *zap.Logger, *database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, "medshop")
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.Error("database connection failed", zap.Error(err))
		_ = log.Sync()
		return nil, nil, nil, err
	}
	if err := migrations.Run(ctx, db); err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	return cfg, log, db, nil
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			seedFile, _ := cmd.Flags().GetString("seed-file")
			return runServer(cmd.Context(), seedFile)
		},
	}
	cmd.Flags().String("seed-file", "", "Medicine catalog CSV to load before serving")
	return cmd
}

func runServer(ctx context.Context, seedFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, log, db, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer log.Sync()

	if seedFile != "" {
		if _, err := seed.LoadMedicinesFile(ctx, db, seedFile, log); err != nil {
			return err
		}
	}
	if !cfg.AuthEnabled() {
		log.Warn("STAFF_PASSWORD_HASH is not set, dashboard login is disabled")
	}

	store := repository.New(db, log)
	workflow := registration.New(store, store, registration.Options{RequireCatalog: cfg.RequireCatalog}, log)
	handler, err := api.New(cfg, store, workflow, dashboard.New(store, cfg.UpcomingDays, nil), log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("medshop dashboard starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database tables if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			log.Info("migrations applied", zap.String("driver", db.Dialect.Name))
			return log.Sync()
		},
	}
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load medicine names into the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			_, log, db, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			defer log.Sync()

			added, err := seed.LoadMedicinesFile(cmd.Context(), db, file, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %d medicines\n", added)
			return nil
		},
	}
	cmd.Flags().String("file", "assets/medicines.csv", "Path to the medicine catalog CSV")
	return cmd
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for STAFF_PASSWORD_HASH",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Fprintln(cmd.ErrOrStderr())
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = string(raw)
			}
			password = strings.TrimSpace(password)
			if password == "" {
				return errors.New("password must not be empty")
			}
			hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("unable to secure password: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hashed))
			return nil
		},
	}
}
