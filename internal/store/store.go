// Package store is the alertdesk data-access layer.
//
// Two interchangeable AlertStore implementations exist: SQLiteStore (embedded,
// GORM over a pure-Go SQLite driver) and PostgresStore (hosted, database/sql over
// lib/pq). Open picks one from configuration once at startup; callers only ever
// see the interface. Every operation runs under the caller's context on its own
// pooled connection, which is returned to the pool before the method returns.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vesaa/alertdesk/internal/config"
	"github.com/vesaa/alertdesk/internal/models"
	"go.uber.org/zap"
)

// FilterTimeLayout is the only accepted format for search bounds (YYYY-MM-DDTHH:MM).
const FilterTimeLayout = "2006-01-02T15:04"

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	// ErrInvalidTime is returned by ParseFilterTime for input not matching FilterTimeLayout.
	ErrInvalidTime = errors.New("invalid time")
	// ErrUnsupportedDSN is returned when database_url names an unknown scheme.
	ErrUnsupportedDSN = errors.New("unsupported database url")
)

// AlertStore is the uniform create/list/search contract over both backends.
type AlertStore interface {
	// Create persists a and fills in a.ID (and a.CreatedAt when zero).
	// The ID is only set once the row is committed.
	Create(ctx context.Context, a *models.Alert) error
	// List returns every alert, newest first.
	List(ctx context.Context) ([]models.Alert, error)
	// Search returns alerts matching every non-empty field of f, newest first.
	Search(ctx context.Context, f Filter) ([]models.Alert, error)
	// Ping reports whether the backing database is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// Filter narrows a search. Zero-valued fields are ignored; the rest are ANDed.
type Filter struct {
	// Hostname is matched as an unanchored substring.
	Hostname string
	// Start and End are inclusive bounds on created_at.
	Start *time.Time
	End   *time.Time
}

// IsZero reports whether f selects every alert.
func (f Filter) IsZero() bool {
	return f.Hostname == "" && f.Start == nil && f.End == nil
}

// ParseFilterTime parses a search bound. An empty string yields (nil, nil).
// Times carry no zone and are read as UTC, matching how created_at is stored.
func ParseFilterTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(FilterTimeLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q does not match YYYY-MM-DDTHH:MM", ErrInvalidTime, s)
	}
	return &t, nil
}

// Driver maps a database URL to a backend name. Empty selects the embedded store.
func Driver(databaseURL string) (string, error) {
	switch {
	case databaseURL == "":
		return DriverSQLite, nil
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return DriverPostgres, nil
	default:
		scheme, _, _ := strings.Cut(databaseURL, "://")
		return "", fmt.Errorf("%w: scheme %q", ErrUnsupportedDSN, scheme)
	}
}

// Open connects to the store selected by cfg.DatabaseURL and ensures the schema.
// Any error here means the store is unusable and the caller should not serve.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (AlertStore, error) {
	driver, err := Driver(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	log = log.Named("db")

	switch driver {
	case DriverPostgres:
		s, err := NewPostgresStore(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
		if err != nil {
			return nil, err
		}
		log.Info("opened store", zap.String("driver", driver))
		return s, nil
	default:
		s, err := NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		log.Info("opened store", zap.String("driver", driver), zap.String("path", cfg.DBPath))
		return s, nil
	}
}

// now is the store clock: UTC, truncated to what both backends can hold.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// stamp normalizes a.CreatedAt before insert, defaulting it to now.
func stamp(a *models.Alert) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now()
		return
	}
	a.CreatedAt = a.CreatedAt.UTC().Truncate(time.Microsecond)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern (ESCAPE '\') matching s literally anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
