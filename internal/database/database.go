// Package database opens the configured Store and attachment backend.
package database

import (
	"context"
	"fmt"

	"github.com/smartwork/assistant/internal/config"
	"github.com/smartwork/assistant/internal/pkg/blob"
	"github.com/smartwork/assistant/internal/store"
	"github.com/smartwork/assistant/internal/store/memstore"
	"github.com/smartwork/assistant/internal/store/mongostore"
	"github.com/smartwork/assistant/internal/store/sqlstore"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects the store selected by cfg.Database.Driver. MySQL schemas are
// migrated when autoMigrate is set.
func Open(ctx context.Context, cfg *config.AppConfig, autoMigrate bool) (store.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		return mongostore.Connect(ctx, cfg.Database.MongoURI, cfg.Database.MongoDatabaseName())
	case config.DriverMySQL:
		db, err := openDB(cfg, resolveLogLevel(cfg))
		if err != nil {
			return nil, err
		}
		if autoMigrate {
			if err := sqlstore.Migrate(db); err != nil {
				return nil, fmt.Errorf("migration failed: %w", err)
			}
		}
		return sqlstore.New(db), nil
	case config.DriverMemory:
		return memstore.New(), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
}

// EnsureSchema applies the MySQL migration in a short-lived connection.
func EnsureSchema(cfg *config.AppConfig) error {
	if cfg.Database.Driver != config.DriverMySQL {
		return nil
	}
	db, err := openDB(cfg, resolveLogLevel(cfg))
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("resolve sql db: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlstore.Migrate(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// OpenBlob returns the attachment backend. GridFS shares the Mongo
// connection of st.
func OpenBlob(ctx context.Context, cfg *config.AppConfig, st store.Store) (blob.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageGridFS:
		ms, ok := st.(*mongostore.Store)
		if !ok {
			return nil, fmt.Errorf("gridfs storage requires the mongo database driver")
		}
		return blob.NewGridFS(ms.Database()), nil
	case config.StorageS3:
		s3cfg := cfg.Storage.S3
		return blob.NewS3(ctx, blob.S3Options{
			Bucket:          s3cfg.Bucket,
			Region:          s3cfg.Region,
			Endpoint:        s3cfg.Endpoint,
			AccessKeyID:     s3cfg.AccessKeyID,
			SecretAccessKey: s3cfg.SecretAccessKey,
			Prefix:          s3cfg.Prefix,
			PathStyle:       s3cfg.PathStyle,
		})
	default:
		return blob.NewLocal(cfg.UploadDir())
	}
}

func resolveLogLevel(cfg *config.AppConfig) logger.LogLevel {
	if cfg.IsDev() {
		return logger.Info
	}
	return logger.Warn
}

func openDB(cfg *config.AppConfig, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:               cfg.Database.DSNValue(),
		DefaultStringSize: 191,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return db, nil
}
