package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/joacominatel/devintest/internal/config"
	"github.com/joacominatel/devintest/internal/database"
	"github.com/rs/zerolog"
)

// Executor runs statements as independent units of work: one session, one
// statement, one commit or rollback.
type Executor struct {
	provider database.Provider
	log      zerolog.Logger
}

// NewExecutor creates an executor opening sessions through provider.
func NewExecutor(provider database.Provider, log zerolog.Logger) *Executor {
	return &Executor{provider: provider, log: log}
}

// Execute opens a session, runs stmt inside a transaction and releases the
// session before returning. Reads return their rows and roll back; writes
// commit and report rows affected. Failures roll back and return *ErrQuery;
// session failures return *ErrConnection.
func (e *Executor) Execute(ctx context.Context, desc config.Descriptor, stmt database.Statement) (res *database.Result, err error) {
	start := time.Now()

	db, err := e.provider.Open(ctx, desc)
	if err != nil {
		return nil, &ErrConnection{Cause: err}
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			e.log.Warn().Err(cerr).Msg("close session")
		}
	}()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &ErrConnection{Cause: fmt.Errorf("begin: %w", err)}
	}

	keyword := stmt.Keyword()
	if stmt.IsRead() {
		res, err = query(ctx, tx, stmt)
		if err != nil {
			e.rollback(tx)
			return nil, newQueryError(stmt.SQL, err)
		}
		e.rollback(tx)
	} else {
		res, err = e.exec(ctx, tx, stmt)
		if err != nil {
			e.rollback(tx)
			return nil, newQueryError(stmt.SQL, err)
		}
		if err := tx.Commit(); err != nil {
			return nil, newQueryError(stmt.SQL, fmt.Errorf("commit: %w", err))
		}
	}

	res.Duration = time.Since(start)
	e.log.Debug().
		Str("statement", keyword).
		Int("rows", res.RowCount()).
		Int64("affected", res.RowsAffected).
		Dur("elapsed", res.Duration).
		Msg("statement executed")
	return res, nil
}

func (e *Executor) rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		e.log.Warn().Err(err).Msg("rollback")
	}
}

func query(ctx context.Context, tx *sql.Tx, stmt database.Statement) (*database.Result, error) {
	rows, err := tx.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	var resultRows [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		resultRows = append(resultRows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return &database.Result{
		Columns: columns,
		Rows:    resultRows,
		Success: true,
	}, nil
}

func (e *Executor) exec(ctx context.Context, tx *sql.Tx, stmt database.Statement) (*database.Result, error) {
	r, err := tx.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}

	// Statements without a row count report zero affected.
	affected, err := r.RowsAffected()
	if err != nil {
		e.log.Debug().Err(err).Str("statement", stmt.Keyword()).Msg("rows affected unavailable")
		affected = 0
	}
	return &database.Result{Success: true, RowsAffected: affected}, nil
}
