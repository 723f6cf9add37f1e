// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tablehost/admin-api/internal/identity"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:9999", "listen address")
	serviceKey := flag.String(
		"service-key",
		"dev-service-key",
		"privileged service credential accepted for admin operations",
	)
	seed := flag.String(
		"seed",
		"",
		"comma-separated email:password pairs to preload",
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*addr, *serviceKey, *seed, logger); err != nil {
		logger.Error("identity-dev error", "error", err)
		os.Exit(1)
	}
}

func run(addr, serviceKey, seed string, logger *slog.Logger) error {
	srv, err := identity.NewDevServer(serviceKey)
	if err != nil {
		return err
	}

	for _, pair := range strings.Split(seed, ",") {
		if pair == "" {
			continue
		}

		email, password, ok := strings.Cut(pair, ":")
		if !ok {
			logger.Warn("skipping malformed seed entry", "entry", pair)
			continue
		}

		ident, addErr := srv.AddUser(email, password)
		if addErr != nil {
			return addErr
		}
		logger.Info("seeded user", "id", ident.ID, "email", ident.Email)
	}

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		logger.Info("identity-dev listening", "address", addr)
		errChan <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		5*time.Second,
	)
	defer cancel()

	return httpServer.Shutdown(shutdownCtx)
}
