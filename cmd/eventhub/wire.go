package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"eventhub/config"
	"eventhub/internal/adapters/auth"
	"eventhub/internal/adapters/calendar"
	"eventhub/internal/adapters/email"
	httpdelivery "eventhub/internal/delivery/http"
	"eventhub/internal/delivery/http/controllers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"
	"eventhub/internal/repository/memory"
	"eventhub/internal/repository/sqlstore"
	"eventhub/internal/services"
)

const bcryptCost = 10

// store bundles the repositories for one backend.
type store struct {
	events domain.EventRepository
	users  domain.UserRepository
	db     *sql.DB
}

func (s *store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// pinger returns the health check target for the store, or nil for the memory backend.
func (s *store) pinger() controllers.Pinger {
	if s.db == nil {
		return nil
	}
	return s.db
}

func openStore(ctx context.Context, cfg *config.Config, migrate bool) (*store, error) {
	if cfg.StoreDriver == config.StoreMemory {
		return &store{events: memory.NewEventRepository(), users: memory.NewUserRepository()}, nil
	}
	dialect, err := sqlstore.NewDialect(cfg.StoreDriver)
	if err != nil {
		return nil, err
	}
	db, err := sqlstore.Open(ctx, dialect.Driver(), cfg.DBUrl)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := sqlstore.Migrate(ctx, db, dialect); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &store{
		events: sqlstore.NewEventRepository(db, dialect),
		users:  sqlstore.NewUserRepository(db, dialect),
		db:     db,
	}, nil
}

type app struct {
	store   *store
	auth    domain.AuthService
	events  domain.EventService
	handler http.Handler
}

func (a *app) Close() error {
	return a.store.Close()
}

func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrate bool) (*app, error) {
	s, err := openStore(ctx, cfg, migrate)
	if err != nil {
		return nil, err
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.SESInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("mailer: %w", err)
	}
	emailSvc := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)

	tokens := auth.NewJWT(cfg.JWTSecret)
	authSvc := services.NewAuthService(s.users, auth.NewBcryptHasher(bcryptCost), tokens, emailSvc,
		cfg.JWTExpiry, cfg.EventServiceTimeout, logger)
	eventSvc := services.NewEventService(s.events, s.users, calendar.NewICalEncoder(), cfg.EventServiceTimeout)

	handler := httpdelivery.NewRouter(httpdelivery.RouterDeps{
		Logger:         logger,
		Events:         controllers.NewEventController(logger, eventSvc),
		Auth:           controllers.NewAuthController(logger, authSvc),
		Health:         controllers.NewHealthController(logger, s.pinger()),
		RequireAuth:    middleware.RequireAuth(tokens, authSvc, logger),
		AllowedOrigins: cfg.AllowedOrigins,
	})

	return &app{store: s, auth: authSvc, events: eventSvc, handler: handler}, nil
}
