package database

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Ping kiểm tra database connection có còn responsive không
func (db *PostgresDB) Ping(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.Pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// Close đóng pool khi application shutdown. Safe to call multiple times.
func (db *PostgresDB) Close() error {
	if db.Pool == nil {
		log.Println("[DATABASE] Pool is already closed or was never initialized")
		return nil
	}

	log.Println("[DATABASE] Closing database connection pool...")
	db.Pool.Close()
	db.Pool = nil
	log.Println("[DATABASE] Connection pool closed successfully")

	return nil
}

// PoolStats là snapshot của connection pool statistics cho monitoring
type PoolStats struct {
	AcquireCount         int64
	AcquireDuration      time.Duration
	AcquiredConns        int32
	CanceledAcquireCount int64
	IdleConns            int32
	MaxConns             int32
	TotalConns           int32
	NewConnsCount        int64
}

// Stats trả về snapshot của pool statistics
func (db *PostgresDB) Stats() (*PoolStats, error) {
	if db.Pool == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}

	raw := db.Pool.Stat()
	return &PoolStats{
		AcquireCount:         raw.AcquireCount(),
		AcquireDuration:      raw.AcquireDuration(),
		AcquiredConns:        raw.AcquiredConns(),
		CanceledAcquireCount: raw.CanceledAcquireCount(),
		IdleConns:            raw.IdleConns(),
		MaxConns:             raw.MaxConns(),
		TotalConns:           raw.TotalConns(),
		NewConnsCount:        raw.NewConnsCount(),
	}, nil
}
