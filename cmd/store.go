package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/opsportal/ops-portal/internal"
	"github.com/opsportal/ops-portal/internal/session"
	"github.com/opsportal/ops-portal/internal/store"
	"github.com/opsportal/ops-portal/internal/store/gormstore"
	"github.com/opsportal/ops-portal/internal/store/mongostore"
	"github.com/spf13/afero"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// initStore opens the record store backend selected by cfg.Driver.
func initStore(ctx context.Context, cfg internal.StoreConfig, lg *slog.Logger) (*store.Store, error) {
	var backend store.Backend

	switch cfg.Driver {
	case internal.StoreDriverMemory:
		lg.Warn("using the in-memory store; data is lost on restart")
		backend = store.NewMemoryBackend()

	case internal.StoreDriverFile:
		fb, err := store.NewFileBackend(afero.NewOsFs(), cfg.FileDir)
		if err != nil {
			return nil, err
		}
		backend = fb

	case internal.StoreDriverPostgres:
		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			return nil, err
		}
		gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB.DB}), gormConfig())
		if err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to open gorm on postgres: %w", err)
		}
		backend = gormstore.New(gdb)

	case internal.StoreDriverSQLite:
		gdb, err := gorm.Open(sqlite.Open(cfg.Database.Source), gormConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite %s: %w", cfg.Database.Source, err)
		}
		gb := gormstore.New(gdb)
		if err := gb.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("failed to migrate sqlite store: %w", err)
		}
		backend = gb

	case internal.StoreDriverMongo:
		mb, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		backend = mb

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	lg.Info("record store ready", "driver", cfg.Driver)
	return store.New(backend, lg), nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initSessions returns the session store and a close func for it.
func initSessions(ctx context.Context, cfg internal.SessionConfig, lg *slog.Logger) (session.Store, func() error, error) {
	if cfg.Driver == internal.SessionDriverRedis {
		client, err := session.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		lg.Info("session store ready", "driver", cfg.Driver, "addr", cfg.Redis.Addr)
		rs := session.NewRedisStore(client, cfg.Redis.Prefix)
		return rs, rs.Close, nil
	}

	lg.Warn("using in-memory sessions; logins do not survive a restart")
	return session.NewMemoryStore(time.Now), func() error { return nil }, nil
}
