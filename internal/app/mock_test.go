package app

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/joacominatel/devintest/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDesc = config.Descriptor{
	Endpoint: "localhost",
	Database: "postgres",
	User:     "admin",
	Password: "secret",
}

// mockProvider hands out one sqlmock session per Open call, scripted by the
// matching setup function.
type mockProvider struct {
	t       *testing.T
	setups  []func(sqlmock.Sqlmock)
	mocks   []sqlmock.Sqlmock
	openErr error
}

func newMockProvider(t *testing.T, setups ...func(sqlmock.Sqlmock)) *mockProvider {
	t.Helper()
	return &mockProvider{t: t, setups: setups}
}

func (p *mockProvider) Open(_ context.Context, desc config.Descriptor) (*sql.DB, error) {
	if p.openErr != nil {
		return nil, p.openErr
	}
	assert.Equal(p.t, testDesc, desc)
	if len(p.mocks) >= len(p.setups) {
		return nil, fmt.Errorf("unexpected session %d", len(p.mocks)+1)
	}

	db, mock, err := sqlmock.New()
	require.NoError(p.t, err)
	p.setups[len(p.mocks)](mock)
	p.mocks = append(p.mocks, mock)
	return db, nil
}

func (p *mockProvider) assertDone() {
	p.t.Helper()
	assert.Len(p.t, p.mocks, len(p.setups), "sessions opened")
	for i, m := range p.mocks {
		assert.NoError(p.t, m.ExpectationsWereMet(), "session %d", i+1)
	}
}

func newTestService(p *mockProvider, strict bool) *Service {
	return NewService(p, testDesc, Options{Strict: strict, Logger: zerolog.Nop()})
}

func expectWrite(pattern string, affected int64, args ...driver.Value) func(sqlmock.Sqlmock) {
	return func(m sqlmock.Sqlmock) {
		m.ExpectBegin()
		e := m.ExpectExec(pattern)
		if len(args) > 0 {
			e = e.WithArgs(args...)
		}
		e.WillReturnResult(sqlmock.NewResult(0, affected))
		m.ExpectCommit()
		m.ExpectClose()
	}
}

func expectWriteError(pattern string, err error) func(sqlmock.Sqlmock) {
	return func(m sqlmock.Sqlmock) {
		m.ExpectBegin()
		m.ExpectExec(pattern).WillReturnError(err)
		m.ExpectRollback()
		m.ExpectClose()
	}
}

func expectRead(pattern string, rows *sqlmock.Rows, args ...driver.Value) func(sqlmock.Sqlmock) {
	return func(m sqlmock.Sqlmock) {
		m.ExpectBegin()
		e := m.ExpectQuery(pattern)
		if len(args) > 0 {
			e = e.WithArgs(args...)
		}
		e.WillReturnRows(rows)
		m.ExpectRollback()
		m.ExpectClose()
	}
}

func expectPing() func(sqlmock.Sqlmock) {
	return func(m sqlmock.Sqlmock) {
		m.ExpectClose()
	}
}

func recordRows(recs ...[3]any) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "name", "data"})
	for _, r := range recs {
		rows.AddRow(r[0], r[1], r[2])
	}
	return rows
}

const (
	patCreate = `CREATE TABLE IF NOT EXISTS devin_test`
	patInsert = `INSERT INTO devin_test`
	patUpdate = `UPDATE devin_test`
	patDelete = `DELETE FROM devin_test`
	patGet    = `FROM devin_test\s+WHERE id = \$1`
	patList   = `FROM devin_test\s+ORDER BY id`
)
