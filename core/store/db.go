package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"vigia-incidents/config"
	"vigia-incidents/core/utils"
)

// DB is the handle the stores query through. It remembers which driver
// opened the connection so queries written with ? placeholders can be
// rebound for postgres, whose wire protocol only accepts $1..$n.
type DB struct {
	*sql.DB
	driver string
}

// rebind rewrites ? placeholders to $1..$n when the pgx driver is active.
// sqlite takes ? as is, so the query passes through untouched.
func (d *DB) rebind(query string) string {
	if d.driver != "pgx" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NewDB opens the configured database. The default driver is the pure-Go
// sqlite build; postgres is selected with db_driver=postgres and db_url.
func NewDB(cfg *config.AppConfig, logger *utils.Logger) (*DB, error) {
	driver := "sqlite"
	if cfg != nil {
		driver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	}
	var db *sql.DB
	var err error
	driverName := "sqlite"
	switch driver {
	case "postgres", "pgx":
		if cfg == nil || strings.TrimSpace(cfg.DBURL) == "" {
			return nil, fmt.Errorf("db_url is required for the postgres driver")
		}
		driverName = "pgx"
		db, err = sql.Open("pgx", cfg.DBURL)
	case "", "sqlite", "sqlite3":
		path := "data/vigia.db"
		if cfg != nil && strings.TrimSpace(cfg.DBPath) != "" {
			path = cfg.DBPath
		}
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		db, err = sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if logger != nil {
		logger.Printf("database ready (driver=%s)", driverName)
	}
	return &DB{DB: db, driver: driverName}, nil
}
