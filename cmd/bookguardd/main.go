// Command bookguardd serves the guarded bookstore over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bookwise/bookguard/pkg/api"
	"github.com/bookwise/bookguard/pkg/auth"
	"github.com/bookwise/bookguard/pkg/bookstore"
	"github.com/bookwise/bookguard/pkg/policy"
)

var (
	addr       = pflag.String("addr", ":8080", "listen address")
	dbPath     = pflag.String("db", "bookguard.db", "SQLite database path")
	policyPath = pflag.String("policy", "", "policy YAML file; empty selects the built-in matrix")
	seed       = pflag.Bool("seed", false, "load sample data and demo users")
)

func main() {
	pflag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(); err != nil {
		slog.Error("bookguardd exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	matrix := policy.Default()
	if *policyPath != "" {
		loaded, err := policy.Load(*policyPath)
		if err != nil {
			return err
		}
		matrix = loaded
		slog.Info("policy loaded", "path", *policyPath)
	}

	provider := auth.NewMemoryProvider()
	db, err := bookstore.Open(bookstore.Config{
		DBPath:       *dbPath,
		AuthProvider: provider,
		Matrix:       matrix,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if *seed {
		if err := db.Seed(); err != nil {
			return err
		}
		if err := seedUsers(provider); err != nil {
			return err
		}
		slog.Info("sample data and demo users loaded")
	}

	server := &http.Server{
		Addr:              *addr,
		Handler:           api.NewRouter(api.NewHandler(db)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", *addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// seedUsers registers one demo user per role. Demo credentials only; real
// deployments plug in their own auth.Provider.
func seedUsers(provider auth.Provider) error {
	demo := []struct {
		username string
		token    string
		role     policy.Role
	}{
		{"sales", "sales-token", policy.RoleSalesRep},
		{"support", "support-token", policy.RoleCustomerService},
		{"inventory", "inventory-token", policy.RoleInventoryManager},
		{"root", "root-token", policy.RoleAdmin},
	}
	for _, user := range demo {
		if err := provider.CreateUser(user.username, user.token, user.role); err != nil {
			return err
		}
	}
	return nil
}
