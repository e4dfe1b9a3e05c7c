package database

import (
	"database/sql"
	"time"

	"notevault/config"
	"notevault/pkg/logger"

	"github.com/cockroachdb/errors"
	_ "github.com/lib/pq"
)

// Connect opens the Postgres pool and verifies it with a few ping retries to
// ride out temporary DNS/network blips. The caller owns the handle and closes
// it on shutdown.
func Connect(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnString())
	if err != nil {
		return nil, errors.Wrap(err, "open database connection")
	}

	for i := 0; i < 5; i++ {
		if err = db.Ping(); err == nil {
			logger.Sugar.Info("Successfully connected to the database")
			return db, nil
		}
		logger.Sugar.Infof("Database connection failed, retrying in 2s... (%v)", err)
		time.Sleep(2 * time.Second)
	}
	db.Close()
	return nil, errors.Wrap(err, "could not connect to database after retries")
}
