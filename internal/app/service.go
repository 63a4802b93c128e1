package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/joacominatel/devintest/internal/config"
	"github.com/joacominatel/devintest/internal/database"
	"github.com/joacominatel/devintest/internal/database/postgres"
	"github.com/rs/zerolog"
)

// Demo targets used by the run sequence.
const (
	DemoUpdateID   int64 = 2
	DemoUpdateData       = "sample22"
	DemoDeleteID   int64 = 3
)

// SeedData are the rows written by SeedRows.
var SeedData = []database.Record{
	{ID: 1, Name: "test1", Data: "sample1"},
	{ID: 2, Name: "test2", Data: "sample2"},
	{ID: 3, Name: "test3", Data: "sample3"},
	{ID: 4, Name: "test4", Data: "sample4"},
}

// Options configure a Service.
type Options struct {
	// Strict makes updates and deletes that match no row fail with
	// ErrNoRowsAffected. Otherwise zero affected rows is success.
	Strict bool
	Logger zerolog.Logger
}

// SeedReport lists what SeedRows did per id.
type SeedReport struct {
	Inserted []int64
	Skipped  []int64
	Failed   []int64
}

// Service exposes the devin_test table operations. Each operation is built
// from independent Executor calls against the same descriptor.
type Service struct {
	provider database.Provider
	exec     *Executor
	desc     config.Descriptor
	strict   bool
	log      zerolog.Logger
}

// NewService creates a service for desc.
func NewService(provider database.Provider, desc config.Descriptor, opts Options) *Service {
	return &Service{
		provider: provider,
		exec:     NewExecutor(provider, opts.Logger),
		desc:     desc,
		strict:   opts.Strict,
		log:      opts.Logger,
	}
}

// Descriptor returns the descriptor the service connects with.
func (s *Service) Descriptor() config.Descriptor {
	return s.desc
}

// Strict reports whether zero affected rows is treated as failure.
func (s *Service) Strict() bool {
	return s.strict
}

// Ping opens a session and releases it immediately.
func (s *Service) Ping(ctx context.Context) error {
	db, err := s.provider.Open(ctx, s.desc)
	if err != nil {
		return &ErrConnection{Cause: err}
	}
	if err := db.Close(); err != nil {
		s.log.Warn().Err(err).Msg("close session")
	}
	return nil
}

// Exec runs an arbitrary statement.
func (s *Service) Exec(ctx context.Context, stmt database.Statement) (*database.Result, error) {
	return s.exec.Execute(ctx, s.desc, stmt)
}

// CreateTable creates devin_test if it does not exist.
func (s *Service) CreateTable(ctx context.Context) error {
	_, err := s.Exec(ctx, database.NewStatement(postgres.QueryCreateTable))
	return err
}

// SeedRows inserts SeedData, skipping ids that already exist. Each row is its
// own transaction: all rows are attempted, and rows inserted before a failure
// stay committed.
func (s *Service) SeedRows(ctx context.Context) (SeedReport, error) {
	var (
		report SeedReport
		errs   []error
	)

	for _, rec := range SeedData {
		n, err := s.InsertRow(ctx, rec)
		var connErr *ErrConnection
		switch {
		case errors.As(err, &connErr):
			// Without a session no later insert can succeed either.
			report.Failed = append(report.Failed, rec.ID)
			errs = append(errs, fmt.Errorf("seed id=%d: %w", rec.ID, err))
			return report, errors.Join(errs...)
		case err != nil:
			report.Failed = append(report.Failed, rec.ID)
			errs = append(errs, fmt.Errorf("seed id=%d: %w", rec.ID, err))
		case n == 0:
			report.Skipped = append(report.Skipped, rec.ID)
		default:
			report.Inserted = append(report.Inserted, rec.ID)
		}
	}

	s.log.Info().
		Ints64("inserted", report.Inserted).
		Ints64("skipped", report.Skipped).
		Ints64("failed", report.Failed).
		Msg("seed finished")

	return report, errors.Join(errs...)
}

// InsertRow inserts rec unless its id already exists. It returns 1 when the
// row was written and 0 when it was skipped.
func (s *Service) InsertRow(ctx context.Context, rec database.Record) (int64, error) {
	res, err := s.Exec(ctx, database.NewStatement(postgres.QueryInsertRow, rec.ID, rec.Name, rec.Data))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

// UpdateRow sets data on the row with id.
func (s *Service) UpdateRow(ctx context.Context, id int64, data string) (int64, error) {
	stmt := database.NewStatement(postgres.QueryUpdateData, id, data)
	res, err := s.Exec(ctx, stmt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, s.checkAffected(stmt, "update", id, res.RowsAffected)
}

// DeleteRow removes the row with id.
func (s *Service) DeleteRow(ctx context.Context, id int64) (int64, error) {
	stmt := database.NewStatement(postgres.QueryDeleteRow, id)
	res, err := s.Exec(ctx, stmt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, s.checkAffected(stmt, "delete", id, res.RowsAffected)
}

// GetRow fetches one row. It returns ErrNotFound when id does not exist.
func (s *Service) GetRow(ctx context.Context, id int64) (*database.Record, error) {
	res, err := s.Exec(ctx, database.NewStatement(postgres.QueryGetRow, id))
	if err != nil {
		return nil, err
	}

	recs, err := res.Records()
	if err != nil {
		return nil, fmt.Errorf("decode devin_test row: %w", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("id=%d: %w", id, ErrNotFound)
	}
	return &recs[0], nil
}

// ListRows returns every row ordered by id.
func (s *Service) ListRows(ctx context.Context) ([]database.Record, error) {
	res, err := s.Exec(ctx, database.NewStatement(postgres.QueryListRows))
	if err != nil {
		return nil, err
	}

	recs, err := res.Records()
	if err != nil {
		return nil, fmt.Errorf("decode devin_test rows: %w", err)
	}
	return recs, nil
}

func (s *Service) checkAffected(stmt database.Statement, op string, id, n int64) error {
	if n > 0 {
		return nil
	}
	if !s.strict {
		s.log.Warn().Str("op", op).Int64("id", id).Msg("no rows matched")
		return nil
	}
	return &ErrQuery{
		Query: stmt.SQL,
		Cause: fmt.Errorf("%s id=%d: %w", op, id, ErrNoRowsAffected),
	}
}
