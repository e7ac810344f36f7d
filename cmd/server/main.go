package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
	"github.com/spf13/pflag"

	"studentrecords/internal/config"
	"studentrecords/internal/database"
	"studentrecords/internal/handler"
	"studentrecords/internal/logging"
	"studentrecords/internal/middleware"
	"studentrecords/internal/repository"
	"studentrecords/internal/service"
	"studentrecords/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, addr string
	flags := pflag.NewFlagSet("server", pflag.ContinueOnError)
	flags.StringVar(&configPath, "config", "", "path to a YAML config file (default $APP_CONFIG)")
	flags.StringVar(&addr, "addr", "", "listen address, overrides HTTP_ADDR")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.HTTP.Addr = addr
	}

	log, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.Database, log); err != nil {
			return err
		}
	}

	db, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer database.Close(db, log)

	hasher, err := service.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	sessions := session.NewManager(cfg.Session.IdleTimeout)
	defer sessions.Close()

	auth := service.NewAuthService(repository.NewUserRepository(db), sessions, hasher, log)
	students := service.NewStudentService(repository.NewStudentRepository(db), nil, log)

	hashKey, blockKey := cookieKeys(cfg.Session, log)
	cookie := middleware.NewSessionCookie(cfg.Session.CookieName, cfg.Session.CookieSecure, hashKey, blockKey)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(handler.RouterDeps{
		Auth:     auth,
		Students: students,
		Cookie:   cookie,
		Log:      log,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTP.Addr, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// cookieKeys returns the configured cookie keys. Without a hash key a
// random one is generated; sessions are in memory anyway, so nothing
// outlives a restart.
func cookieKeys(cfg config.SessionConfig, log *slog.Logger) (hashKey, blockKey []byte) {
	if cfg.HashKey != "" {
		hashKey = []byte(cfg.HashKey)
	} else {
		log.Warn("SESSION_HASH_KEY not set, using a random cookie key")
		hashKey = securecookie.GenerateRandomKey(64)
	}
	if cfg.BlockKey != "" {
		blockKey = []byte(cfg.BlockKey)
	}
	return hashKey, blockKey
}
