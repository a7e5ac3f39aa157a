package server

import (
	"context"
	"fmt"

	"socialql/internal/config"
	"socialql/internal/database"
	"socialql/internal/repository"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"gorm.io/gorm"
)

// Store bundles the repositories of one store driver with its lifecycle hooks.
type Store struct {
	Driver string
	Users  repository.UserRepository
	Posts  repository.PostRepository
	// Ping reports whether the backing store is reachable.
	Ping  func(ctx context.Context) error
	Close func(ctx context.Context) error
	// EnsureSchema creates indexes (mongo) or migrates tables (SQL).
	EnsureSchema func(ctx context.Context) error
}

// OpenStore connects the store selected by cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return MongoStore(client, db), nil
	case config.DriverPostgres, config.DriverSQLite:
		db, err := database.OpenSQL(cfg.StoreDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return SQLStore(cfg.StoreDriver, db), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// MongoStore wraps an open Mongo database.
func MongoStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		Driver: config.DriverMongo,
		Users:  repository.NewMongoUserRepository(db),
		Posts:  repository.NewMongoPostRepository(db),
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		Close: client.Disconnect,
		EnsureSchema: func(ctx context.Context) error {
			return database.EnsureMongoIndexes(ctx, db)
		},
	}
}

// SQLStore wraps an open gorm database.
func SQLStore(driver string, db *gorm.DB) *Store {
	return &Store{
		Driver: driver,
		Users:  repository.NewSQLUserRepository(db),
		Posts:  repository.NewSQLPostRepository(db),
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		Close: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
		EnsureSchema: func(context.Context) error {
			return database.MigrateSQL(db)
		},
	}
}

// MemoryStore wraps an in-process store. Nothing is persisted.
func MemoryStore(m *repository.MemoryStore) *Store {
	noop := func(context.Context) error { return nil }
	return &Store{
		Driver:       "memory",
		Users:        m.Users(),
		Posts:        m.Posts(),
		Ping:         noop,
		Close:        noop,
		EnsureSchema: noop,
	}
}
