// Package database opens SQL connections for ingestion sources. PostgreSQL
// is served by lib/pq and SQLite by mattn/go-sqlite3.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/errors"
)

type Client struct {
	DB  *sql.DB
	cfg config.DatabaseConfig
}

func New(ctx context.Context, cfg config.DatabaseConfig) (*Client, error) {
	switch cfg.Driver {
	case "postgres", "sqlite3":
	default:
		return nil, apperrors.Newf(apperrors.ErrConfiguration, "unsupported database driver %q", cfg.Driver)
	}
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening %s connection: %w", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, apperrors.Newf(apperrors.ErrFileAccess, "pinging %s: %v", cfg.Driver, err)
	}
	return &Client{DB: db, cfg: cfg}, nil
}

func (c *Client) Driver() string {
	return c.cfg.Driver
}

func (c *Client) Close() error {
	return c.DB.Close()
}
