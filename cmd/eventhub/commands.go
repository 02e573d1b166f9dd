package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"eventhub/config"
	"eventhub/internal/domain"
)

const shutdownTimeout = 10 * time.Second

var storeFlag = &cli.StringFlag{
	Name:    "store",
	Usage:   "storage backend: postgres, sqlite or memory (overrides STORE_DRIVER)",
	Aliases: []string{"s"},
}

// loadConfig reads the environment and applies command-line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if c.IsSet("store") {
		cfg.StoreDriver = c.String("store")
	}
	if c.IsSet("port") {
		cfg.Port = c.String("port")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API.",
		Flags: []cli.Flag{
			storeFlag,
			&cli.StringFlag{Name: "port", Aliases: []string{"p"}, Usage: "listen port (overrides PORT)"},
			&cli.BoolFlag{Name: "migrate", Value: true, Usage: "apply pending migrations before serving"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger := config.NewLogger(cfg)

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, cfg, logger, c.Bool("migrate"))
			if err != nil {
				return err
			}
			defer a.Close()

			srv := &http.Server{
				Addr:              cfg.Addr(),
				Handler:           a.handler,
				ReadHeaderTimeout: 5 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				logger.Info("server listening", "addr", srv.Addr, "store", cfg.StoreDriver, "env", cfg.Environment)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("listen: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending database migrations and exit.",
		Flags: []cli.Flag{storeFlag},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if cfg.StoreDriver == config.StoreMemory {
				return fmt.Errorf("the memory store has no schema to migrate")
			}
			logger := config.NewLogger(cfg)
			s, err := openStore(c.Context, cfg, true)
			if err != nil {
				return err
			}
			defer s.Close()
			logger.Info("migrations applied", "store", cfg.StoreDriver)
			return nil
		},
	}
}

func promoteCommand() *cli.Command {
	return &cli.Command{
		Name:  "promote",
		Usage: "Set the role of a registered user.",
		Flags: []cli.Flag{
			storeFlag,
			&cli.StringFlag{Name: "email", Required: true, Usage: "email of the user to update"},
			&cli.StringFlag{Name: "role", Value: string(domain.RoleAdmin), Usage: "role to assign: user or admin"},
		},
		Action: func(c *cli.Context) error {
			email := c.String("email")
			role, ok := domain.ParseRole(c.String("role"))
			if !ok {
				return fmt.Errorf("unknown role %q", c.String("role"))
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if cfg.StoreDriver == config.StoreMemory {
				return fmt.Errorf("promote needs a persistent store")
			}
			logger := config.NewLogger(cfg)
			a, err := buildApp(c.Context, cfg, logger, false)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.auth.Promote(c.Context, email, role)
			if err != nil {
				return fmt.Errorf("promote %s: %w", email, err)
			}
			logger.Info("role updated", "user_id", user.ID, "email", user.Email, "role", user.Role)
			return nil
		},
	}
}
