package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pershin-daniil/MeetBot/pkg/metrics"
	"github.com/pershin-daniil/MeetBot/pkg/models"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrations embed.FS

const retries = 3

type dialect struct {
	driver  string
	migrate string
	dir     string
}

var (
	postgres = dialect{driver: "pgx", migrate: "postgres", dir: "migrations/postgres"}
	sqlite   = dialect{driver: "sqlite", migrate: "sqlite3", dir: "migrations/sqlite"}
)

// Store keeps meetings and their notifications in Postgres or SQLite,
// selected by the DSN.
type Store struct {
	log     *logrus.Entry
	db      *sqlx.DB
	dialect dialect
}

func New(ctx context.Context, log *logrus.Logger, dsn string) (*Store, error) {
	d, source := dialectFor(dsn)
	db, err := sqlx.ConnectContext(ctx, d.driver, source)
	if err != nil {
		return nil, fmt.Errorf("err connecting to %s: %w", d.migrate, err)
	}
	if d == sqlite {
		// A single connection serialises writers and keeps in-memory databases alive.
		db.SetMaxOpenConns(1)
	}
	return &Store{
		log:     log.WithField("component", "store"),
		db:      db,
		dialect: d,
	}, nil
}

func dialectFor(dsn string) (dialect, string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgres, dsn
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqlite, strings.TrimPrefix(dsn, "sqlite://")
	default:
		return sqlite, dsn
	}
}

func (s *Store) Migrate(direction migrate.MigrationDirection) error {
	assetDir := func(path string) ([]string, error) {
		dirEntry, err := migrations.ReadDir(path)
		if err != nil {
			return nil, err
		}
		entries := make([]string, 0, len(dirEntry))
		for _, e := range dirEntry {
			entries = append(entries, e.Name())
		}
		return entries, nil
	}
	asset := migrate.AssetMigrationSource{
		Asset:    migrations.ReadFile,
		AssetDir: assetDir,
		Dir:      s.dialect.dir,
	}
	n, err := migrate.Exec(s.db.DB, s.dialect.migrate, asset, direction)
	if err != nil {
		return fmt.Errorf("err applying migrations: %w", err)
	}
	s.log.Debugf("applied %d migrations", n)
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Stats counts stored records. Sessions are owned by the front-end and are
// left at zero here.
func (s *Store) Stats(ctx context.Context) (models.Stats, error) {
	var stats models.Stats
	err := s.retry(ctx, "Stats", func() error {
		if err := s.db.GetContext(ctx, &stats.Meetings, `SELECT count(*) FROM meetings`); err != nil {
			return err
		}
		return s.db.GetContext(ctx, &stats.Notifications, `SELECT count(*) FROM notifications`)
	})
	if err != nil {
		return models.Stats{}, fmt.Errorf("err counting records: %w", err)
	}
	return stats, nil
}

// retry runs fn up to retries times. Not-found results are final; every other
// failure is reported as ErrStoreUnavailable.
func (s *Store) retry(ctx context.Context, method string, fn func() error) error {
	start := time.Now()
	defer func() {
		metrics.StoreDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()
	var err error
	for i := 0; i < retries; i++ {
		err = fn()
		if err == nil || isNotFound(err) {
			return err
		}
		if ctx.Err() != nil {
			break
		}
		s.log.Debugf("%s attempt %d failed: %v", method, i+1, err)
	}
	metrics.StoreErrCount.WithLabelValues(method).Inc()
	return fmt.Errorf("%w: %w", models.ErrStoreUnavailable, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, models.ErrMeetingNotFound) || errors.Is(err, models.ErrNotificationNotFound)
}
