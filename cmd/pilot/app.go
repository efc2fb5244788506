package main

import (
	"context"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/hairizuan-noorazman/helpdesk-pilot/capability"
	"github.com/hairizuan-noorazman/helpdesk-pilot/database"
	"github.com/hairizuan-noorazman/helpdesk-pilot/gateway"
	"github.com/hairizuan-noorazman/helpdesk-pilot/logger"
	"github.com/hairizuan-noorazman/helpdesk-pilot/storage"
)

// newLogger writes logs to stderr so stdout stays free for reports.
func newLogger(cfg *Config) logger.Logger {
	return logger.NewLogrusLoggerWithOutput(cfg.Log.Level, cfg.Log.Format, os.Stderr)
}

func gatewayConfig(cfg *Config) gateway.Config {
	return gateway.Config{
		Domain:      cfg.Helpdesk.Domain,
		Host:        cfg.Helpdesk.Host,
		PrivateHost: cfg.Helpdesk.PrivateHost,
		Timeout:     cfg.Helpdesk.Timeout,
	}
}

// newRegistry builds the helpdesk clients and the capability registry.
// The session client is only built when session credentials are set.
func newRegistry(ctx context.Context, cfg *Config, log logger.Logger, opts ...gateway.Option) (*capability.Registry, error) {
	api, err := gateway.NewAPIKeyClient(gatewayConfig(cfg), cfg.Helpdesk.APIKey, log, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create api client: %w", err)
	}

	var session capability.Doer
	if cfg.UsesSession() {
		sc, err := gateway.NewSessionClient(ctx, gatewayConfig(cfg), cfg.Helpdesk.Email, cfg.Helpdesk.Password, log, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create session client: %w", err)
		}
		session = sc
	}

	return capability.NewRegistry(log, capability.HelpdeskProviders(api, session, cfg.Helpdesk.EmailDomain, log)...)
}

// newBlobStorage opens the transcript storage backend.
func newBlobStorage(ctx context.Context, cfg *Config) (storage.BlobStorage, error) {
	blobs, err := storage.New(ctx, storage.Config{
		Type:          cfg.Storage.Type,
		BaseDir:       cfg.Storage.BaseDir,
		Bucket:        cfg.Storage.S3Bucket,
		Region:        cfg.Storage.S3Region,
		Prefix:        cfg.Storage.S3Prefix,
		PresignExpiry: cfg.Storage.S3PresignExpiry,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return blobs, nil
}

// openDatabase connects to the result store and applies migrations.
func openDatabase(cfg *Config, log logger.Logger) (*gorm.DB, func(), error) {
	db, err := database.Connect(database.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := database.RunMigrations(sqlDB, cfg.Database.Driver); err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Debug(context.Background(), "database connected", map[string]interface{}{
		"driver": cfg.Database.Driver,
	})
	return db, func() { sqlDB.Close() }, nil
}
