package main

import (
	"context"
	"io"
	"net/url"

	"go.uber.org/zap"

	"github.com/atinyakov/shorty/internal/app/service"
	"github.com/atinyakov/shorty/internal/config"
	"github.com/atinyakov/shorty/internal/repository"
	"github.com/atinyakov/shorty/internal/storage"
)

type closableStorage interface {
	service.Storage
	io.Closer
}

// openStorage builds the backend picked by options.Storage.
func openStorage(ctx context.Context, options *config.Options, zapLogger *zap.Logger) (service.Storage, io.Closer, error) {
	var (
		s   closableStorage
		err error
	)

	switch options.Storage() {
	case config.StoragePostgres:
		zapLogger.Info("using postgres")
		db, err := repository.InitPostgres(ctx, options.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		s = repository.NewPostgres(db, zapLogger)
	case config.StorageRedis:
		zapLogger.Info("using redis", zap.String("addr", options.RedisAddr))
		s, err = storage.OpenRedis(ctx, options.RedisAddr, zapLogger)
	case config.StorageSQLite:
		zapLogger.Info("using sqlite", zap.String("path", options.SQLitePath))
		db, err := repository.InitSQLite(ctx, options.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		s = repository.NewSQLite(db, zapLogger)
	case config.StorageFile:
		zapLogger.Info("using file", zap.String("filePath", options.FilePath))
		s, err = storage.NewFileStorage(options.FilePath, zapLogger)
	default:
		zapLogger.Info("using in memory storage")
		s, err = storage.CreateMemoryStorage()
	}
	if err != nil {
		return nil, nil, err
	}

	return s, s, nil
}

// hostsOf returns the host of base for the certificate whitelist.
func hostsOf(base string) []string {
	u, err := url.Parse(base)
	if err != nil || u.Hostname() == "" {
		return nil
	}
	return []string{u.Hostname()}
}
