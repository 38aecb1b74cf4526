package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"meduhub/internal/config"
	"meduhub/internal/store"
)

const (
	maxOpenConns           = 25
	maxIdleConns           = 5
	connMaxLifetime        = 5 * time.Minute
	connMaxIdleTime        = 10 * time.Minute
	pingTimeout            = 5 * time.Second
	serverSelectionTimeout = 5 * time.Second
	socketTimeout          = 45 * time.Second
	mongoMaxPoolSize       = 10
)

// Open connects to the store selected by cfg.URL, prepares its schema or
// indexes and verifies the connection. The returned store records query
// metrics.
func Open(ctx context.Context, cfg *config.DatabaseConfig, log *logrus.Logger) (store.Store, error) {
	entry := log.WithField("component", "database")

	var (
		s   store.Store
		err error
	)
	switch cfg.Driver() {
	case config.DriverMongo:
		entry.Info("Connecting to MongoDB...")
		s, err = openMongo(ctx, cfg)
	case config.DriverPostgres:
		entry.Info("Connecting to PostgreSQL database...")
		s, err = openSQL(ctx, postgres.Open(cfg.GetPostgresDSN()), true)
	case config.DriverSQLite:
		entry.Info("Connecting to SQLite database...")
		s, err = openSQLite(ctx, cfg.GetSQLitePath())
	default:
		return nil, fmt.Errorf("unsupported database URL %q", cfg.Redacted())
	}
	if err != nil {
		return nil, err
	}

	entry.WithField("url", cfg.Redacted()).Info("Database connected")
	return store.NewInstrumented(s), nil
}

func openMongo(ctx context.Context, cfg *config.DatabaseConfig) (store.Store, error) {
	dbName, err := cfg.MongoDatabase()
	if err != nil {
		return nil, err
	}

	opts := options.Client().
		ApplyURI(cfg.URL).
		SetServerSelectionTimeout(serverSelectionTimeout).
		SetSocketTimeout(socketTimeout).
		SetMaxPoolSize(mongoMaxPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	s := store.NewMongoStore(client, dbName, cfg.Collection, nil)
	if err := testConnection(ctx, s); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func openSQLite(ctx context.Context, path string) (store.Store, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if path == ":memory:" {
		// every connection to :memory: is a separate database
		sqlDB.SetMaxOpenConns(1)
	}
	return openSQL(ctx, sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path,
		Conn:       sqlDB,
	}, false)
}

func openSQL(ctx context.Context, dialector gorm.Dialector, pooled bool) (store.Store, error) {
	// Never log SQL queries: they carry phone numbers and emails
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if pooled {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(maxOpenConns)
		sqlDB.SetMaxIdleConns(maxIdleConns)
		sqlDB.SetConnMaxLifetime(connMaxLifetime)
		sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
	}

	s := store.NewSQLStore(db, nil)
	if err := testConnection(ctx, s); err != nil {
		_ = s.Close(context.Background())
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close(context.Background())
		return nil, err
	}
	return s, nil
}

// testConnection tests the database connection
func testConnection(ctx context.Context, s store.Store) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := s.Ping(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}
	return nil
}
