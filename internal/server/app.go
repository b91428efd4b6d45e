package server

import (
	"context"
	"fmt"

	"github.com/farellandr/castingcall/config"
	"github.com/farellandr/castingcall/internal/messaging"
	"github.com/farellandr/castingcall/internal/payments"
	"github.com/farellandr/castingcall/internal/phonepe"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// App holds the configuration and long lived collaborators shared by the
// serve and reconcile commands.
type App struct {
	DB      *gorm.DB
	Service *payments.Service
	PhonePe *config.PhonePeConfig
	Auth    *config.AuthConfig
	Rabbit  *config.RabbitConfig
	Server  *config.ServerConfig

	publisher messaging.Publisher
}

func Load(ctx context.Context) (*App, error) {
	logger := zerolog.Ctx(ctx)

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	phonePeCfg, err := config.LoadPhonePeConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load gateway config: %w", err)
	}
	authCfg, err := config.LoadAuthConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load auth config: %w", err)
	}

	if phonePeCfg.SharedSalt() {
		logger.Warn().Msg("pay and status requests are signed with the same salt")
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	client, err := phonepe.NewClient(phonePeCfg, nil)
	if err != nil {
		return nil, err
	}

	return &App{
		DB:      db,
		Service: payments.NewService(phonePeCfg, authCfg.ReceiptSecret, payments.NewGormRepository(db), client),
		PhonePe: phonePeCfg,
		Auth:    authCfg,
		Rabbit:  config.LoadRabbitConfig(),
		Server:  config.LoadServerConfig(),
	}, nil
}

func (a *App) Close() {
	if a.publisher != nil {
		_ = a.publisher.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
