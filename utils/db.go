package utils

import (
	"database/sql"
	"fmt"
	"time"

	"incident-dashboard/config"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"
)

// DBConnect opens the MySQL pool and blocks until a ping succeeds. The
// database container may still be starting, so failed pings retry with
// exponential backoff instead of failing the service.
func DBConnect(cfg *config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	waitInterval := time.Second
	for {
		if err := db.Ping(); err == nil {
			break
		} else {
			log.Warnf("Database ping failed, retrying in %v: %v", waitInterval, err)
		}
		time.Sleep(waitInterval)
		if waitInterval < time.Minute {
			waitInterval *= 2
		}
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Infof("Database connection established to %s:%s/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)
	return db, nil
}
