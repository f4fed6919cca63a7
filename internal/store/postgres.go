package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/vesaa/alertdesk/internal/models"
)

//go:embed schema.sql
var schemaSQL string

const selectAlerts = `SELECT id, hostname, metric, value, message, created_at FROM alerts`

// PostgresStore is the hosted AlertStore.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to databaseURL, verifies it is reachable and ensures the schema.
func NewPostgresStore(ctx context.Context, databaseURL string, maxOpen, maxIdle int) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// RunMigrations creates the alerts table and its index if they don't exist.
func (s *PostgresStore) RunMigrations(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, a *models.Alert) error {
	stamp(a)
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO alerts (hostname, metric, value, message, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		a.Hostname, a.Metric, a.Value, a.Message, a.CreatedAt,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Alert, error) {
	return s.Search(ctx, Filter{})
}

func (s *PostgresStore) Search(ctx context.Context, f Filter) ([]models.Alert, error) {
	query, args := buildSearchQuery(f)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]models.Alert, 0)
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.ID, &a.Hostname, &a.Metric, &a.Value, &a.Message, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.CreatedAt = a.CreatedAt.UTC()
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	return alerts, nil
}

// buildSearchQuery renders f as a parameterized SELECT ordered newest first.
func buildSearchQuery(f Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Hostname != "" {
		args = append(args, containsPattern(f.Hostname))
		conds = append(conds, fmt.Sprintf(`hostname LIKE $%d ESCAPE '\'`, len(args)))
	}
	if f.Start != nil {
		args = append(args, f.Start.UTC())
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if f.End != nil {
		args = append(args, f.End.UTC())
		conds = append(conds, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	query := selectAlerts
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	return query, args
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

var _ AlertStore = (*PostgresStore)(nil)
