package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/joacominatel/devintest/internal/config"
	"github.com/joacominatel/devintest/internal/database"
	"github.com/joacominatel/devintest/internal/logger"
	"github.com/rs/zerolog"
)

// Options tune how sessions are opened.
type Options struct {
	Port           int
	SSLMode        string
	ConnectTimeout time.Duration
	Logger         zerolog.Logger
}

// Driver implements database.Provider for PostgreSQL through pgx.
type Driver struct {
	opts   Options
	tracer pgx.QueryTracer
}

// New creates a PostgreSQL driver. SQL tracing is attached when the logger is
// at debug level or below.
func New(opts Options) *Driver {
	if opts.Port == 0 {
		opts.Port = config.DefaultPort
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = config.DefaultConnectTimeout
	}

	d := &Driver{opts: opts}
	if lvl := opts.Logger.GetLevel(); lvl <= zerolog.DebugLevel {
		d.tracer = &tracelog.TraceLog{
			Logger:   pgxzero.NewLogger(opts.Logger.With().Str("component", "pgx").Logger()),
			LogLevel: logger.PgxTraceLevel(lvl),
		}
	}
	return d
}

// DSN builds a postgres:// URL for desc. The password is URL-escaped.
func (d *Driver) DSN(desc config.Descriptor) (string, error) {
	host, port, err := desc.HostPort(d.opts.Port)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	if d.opts.SSLMode != "" {
		q.Set("sslmode", d.opts.SSLMode)
	}
	if secs := int(d.opts.ConnectTimeout / time.Second); secs > 0 {
		q.Set("connect_timeout", strconv.Itoa(secs))
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(desc.User, desc.Password),
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		Path:     "/" + desc.Database,
		RawQuery: q.Encode(),
	}
	if desc.Password == "" {
		u.User = url.User(desc.User)
	}
	return u.String(), nil
}

// Open opens a single-connection session and verifies it with a ping.
func (d *Driver) Open(ctx context.Context, desc config.Descriptor) (*sql.DB, error) {
	dsn, err := d.DSN(desc)
	if err != nil {
		return nil, fmt.Errorf("build dsn: %w", err)
	}

	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.Tracer = d.tracer

	db := stdlib.OpenDB(*cfg)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, d.opts.ConnectTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s: %w", desc.DisplayString(), err)
	}

	d.opts.Logger.Debug().Object("descriptor", desc).Msg("session opened")
	return db, nil
}

var _ database.Provider = (*Driver)(nil)
