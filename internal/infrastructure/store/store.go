// Package store assembles the repositories for the configured backend.
package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/commission-dashboard/sales-api/internal/core/ports"
	"github.com/commission-dashboard/sales-api/internal/infrastructure/config"
	"github.com/commission-dashboard/sales-api/internal/infrastructure/db/gormsql"
	"github.com/commission-dashboard/sales-api/internal/infrastructure/db/memory"
	mongodb "github.com/commission-dashboard/sales-api/internal/infrastructure/db/mongo"
	redisdb "github.com/commission-dashboard/sales-api/internal/infrastructure/db/redis"
)

// Store is everything the services need from persistence.
type Store struct {
	Users  ports.UserRepository
	Tokens ports.TokenRepository
	Sales  ports.SaleRepository
	// Locker is nil unless Redis is configured.
	Locker ports.Locker
	// Checks are reported by the readiness probe, keyed by dependency name.
	Checks map[string]ports.Pinger

	closers []func(context.Context) error
}

// Open connects to the backend selected by cfg.Store and, when REDIS_ADDR is
// set, fronts the token repository with the Redis cache.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Store, error) {
	s := &Store{Checks: map[string]ports.Pinger{}}

	switch cfg.Store {
	case config.StoreMemory:
		db := memory.New()
		s.Users, s.Tokens, s.Sales = db.Users(), db.Tokens(), db.Sales()
		s.Checks["memory"] = db
		log.Info().Msg("using in-memory store")

	case config.StoreMongo:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, client.Disconnect)
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		s.Users = mongodb.NewUserRepository(db)
		s.Tokens = mongodb.NewTokenRepository(db)
		s.Sales = mongodb.NewSaleRepository(db)
		s.Checks["mongo"] = mongodb.Pinger{Client: client}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

	case config.StorePostgres, config.StoreMySQL:
		db, err := gormsql.Open(ctx, gormsql.Config{
			Dialect:      cfg.Store,
			DSN:          cfg.SQL.DSN,
			MaxOpenConns: cfg.SQL.MaxOpenConns,
			AutoMigrate:  cfg.SQL.AutoMigrate,
		}, log)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func(context.Context) error { return gormsql.Close(db) })
		s.Users = gormsql.NewUserRepository(db)
		s.Tokens = gormsql.NewTokenRepository(db)
		s.Sales = gormsql.NewSaleRepository(db)
		s.Checks[cfg.Store] = gormsql.Pinger{DB: db}
		log.Info().Str("dialect", cfg.Store).Msg("connected to SQL database")

	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	if cfg.Redis.Addr != "" {
		client, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		s.closers = append(s.closers, func(context.Context) error { return client.Close() })
		s.Tokens = redisdb.NewTokenCache(s.Tokens, client, cfg.Redis.CacheTTL, log)
		s.Locker = redisdb.NewLocker(client, cfg.Redis.LockTTL, log)
		s.Checks["redis"] = redisdb.Pinger{Client: client}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("token cache and login lock enabled")
	}

	return s, nil
}

// Close releases connections in reverse order of opening.
func (s *Store) Close(ctx context.Context) error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}
