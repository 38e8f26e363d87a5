// Package database persists finished-round results reports in postgres.
// Persistence is optional: with no pool configured every helper is a no-op,
// which keeps local development dependency-free.
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/antialias/abaci-one-sub007/engine"
)

// Pool is the shared connection pool. Nil when postgres is not configured.
var Pool *pgxpool.Pool

// Connect opens the shared pool and verifies the connection.
func Connect(ctx context.Context, dsn string) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping: %w", err)
	}
	Pool = pool
	return nil
}

// CreateSchema creates the reports table if missing.
func CreateSchema(ctx context.Context) error {
	if Pool == nil {
		return nil
	}
	_, err := Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS match_reports (
			id         BIGSERIAL PRIMARY KEY,
			room_id    UUID        NOT NULL,
			variant    TEXT        NOT NULL,
			report     JSONB       NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// StoredReport is one persisted results report row.
type StoredReport struct {
	ID        int64                 `json:"id"`
	RoomID    uuid.UUID             `json:"roomId"`
	Variant   string                `json:"variant"`
	Report    *engine.ResultsReport `json:"report"`
	CreatedAt time.Time             `json:"createdAt"`
}

// StoreResultsReport inserts a finished round's report.
func StoreResultsReport(ctx context.Context, roomID uuid.UUID, report *engine.ResultsReport) error {
	if Pool == nil {
		return nil
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = Pool.Exec(ctx,
		`INSERT INTO match_reports (room_id, variant, report) VALUES ($1, $2, $3)`,
		roomID, report.Variant, data)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// StoreResultsReportAsync persists on its own goroutine, logging failures.
func StoreResultsReportAsync(roomID uuid.UUID, report *engine.ResultsReport) {
	if Pool == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := StoreResultsReport(ctx, roomID, report); err != nil {
			logrus.WithError(err).WithField("room", roomID).Error("failed to store results report")
		}
	}()
}

// RecentReports returns the latest reports, newest first.
func RecentReports(ctx context.Context, limit int) ([]StoredReport, error) {
	if Pool == nil {
		return nil, nil
	}
	rows, err := Pool.Query(ctx,
		`SELECT id, room_id, variant, report, created_at
		   FROM match_reports ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var out []StoredReport
	for rows.Next() {
		var (
			sr   StoredReport
			data []byte
		)
		if err := rows.Scan(&sr.ID, &sr.RoomID, &sr.Variant, &data, &sr.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		if err := json.Unmarshal(data, &sr.Report); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}
