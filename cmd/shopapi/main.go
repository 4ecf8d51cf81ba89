package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"shopapi/internal/cache"
	"shopapi/internal/config"
	"shopapi/internal/domain"
	"shopapi/internal/http/handlers"
	applog "shopapi/internal/log"
	"shopapi/internal/repos"
	"shopapi/internal/services"
)

func main() {
	root := &cobra.Command{
		Use:           "shopapi",
		Short:         "E-commerce backend: accounts, catalog and carts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), createAdminCmd())
	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	c, err := cache.Open(ctx, cache.Options{
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		DefaultTTL:    cfg.CacheTTL,
	})
	if err != nil {
		// The catalog must keep working without a shared cache.
		applog.Error(nil, "cache.open.fail", err, map[string]any{"addr": cfg.RedisAddr})
		c = cache.NewMemory(cfg.CacheTTL)
	}
	defer c.Close()

	app := handlers.NewApp(handlers.NewDeps(db, cfg, c), handlers.DefaultOptions())

	errc := make(chan error, 1)
	go func() { errc <- app.Listen(":" + cfg.Port) }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case s := <-sig:
		log.Printf("[shutdown] %s received", s)
	}
	return app.ShutdownWithTimeout(10 * time.Second)
}

func createAdminCmd() *cobra.Command {
	var email, username, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account, or promote an existing one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" || username == "" || len(password) < 8 {
				return errors.New("--email, --username and --password (min 8 chars) are required")
			}
			cfg := config.Load()
			db, err := repos.OpenDB(cfg.DBDSN)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			auth := &services.AuthService{Users: repos.NewUserRepo(db)}
			u, created, err := auth.EnsureAdmin(cmd.Context(), domain.NewUser{
				Username: username, Email: email, Password: password,
			})
			if err != nil {
				return err
			}
			verb := "promoted"
			if created {
				verb = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s (id=%d) %s\n", u.Username, u.ID, verb)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&username, "username", "", "admin username")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	return cmd
}
