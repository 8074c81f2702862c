package database

import (
	"context"
	"database/sql"
	"fmt"

	"wisefido-vitals/common/config"

	_ "github.com/lib/pq"
)

// NewPostgresDB 打开 PostgreSQL 连接池并 Ping 一次
func NewPostgresDB(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return db, nil
}

// Close 关闭数据库连接（nil 安全）
func Close(db *sql.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
