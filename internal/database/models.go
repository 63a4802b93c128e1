package database

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/cast"
)

// readKeywords are the leading keywords of statements that return rows.
var readKeywords = map[string]bool{
	"SELECT":  true,
	"SHOW":    true,
	"EXPLAIN": true,
	"VALUES":  true,
	"TABLE":   true,
}

// Statement is one SQL command with its positional parameters.
type Statement struct {
	SQL  string
	Args []any
}

// NewStatement builds a statement.
func NewStatement(sql string, args ...any) Statement {
	return Statement{SQL: sql, Args: args}
}

// Keyword returns the upper-cased leading keyword of the statement, skipping
// whitespace, comments and opening parentheses.
func (s Statement) Keyword() string {
	rest := skipNoise(s.SQL)
	end := strings.IndexFunc(rest, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if end < 0 {
		end = len(rest)
	}
	return strings.ToUpper(rest[:end])
}

// IsRead reports whether the statement retrieves rows.
func (s Statement) IsRead() bool {
	return readKeywords[s.Keyword()]
}

func skipNoise(q string) string {
	for {
		q = strings.TrimLeftFunc(q, func(r rune) bool {
			return unicode.IsSpace(r) || r == '('
		})
		switch {
		case strings.HasPrefix(q, "--"):
			nl := strings.IndexByte(q, '\n')
			if nl < 0 {
				return ""
			}
			q = q[nl+1:]
		case strings.HasPrefix(q, "/*"):
			end := strings.Index(q, "*/")
			if end < 0 {
				return ""
			}
			q = q[end+2:]
		default:
			return q
		}
	}
}

// Result holds the outcome of one executed statement. Reads fill Columns and
// Rows; writes set Success and RowsAffected.
type Result struct {
	Columns      []string
	Rows         [][]any
	Success      bool
	RowsAffected int64
	Duration     time.Duration
}

// RowCount returns the number of fetched rows.
func (r *Result) RowCount() int {
	return len(r.Rows)
}

// Record is one row of the devin_test table.
type Record struct {
	ID   int64
	Name string
	Data string
}

// RecordFromRow decodes an (id, name, data) row. NULL text columns decode to
// the empty string.
func RecordFromRow(row []any) (Record, error) {
	if len(row) != 3 {
		return Record{}, fmt.Errorf("expected 3 columns, got %d", len(row))
	}

	id, err := cast.ToInt64E(row[0])
	if err != nil {
		return Record{}, fmt.Errorf("decode id: %w", err)
	}
	name, err := cast.ToStringE(row[1])
	if err != nil {
		return Record{}, fmt.Errorf("decode name: %w", err)
	}
	data, err := cast.ToStringE(row[2])
	if err != nil {
		return Record{}, fmt.Errorf("decode data: %w", err)
	}

	return Record{ID: id, Name: name, Data: data}, nil
}

// Records decodes every row of a read result.
func (r *Result) Records() ([]Record, error) {
	out := make([]Record, 0, len(r.Rows))
	for i, row := range r.Rows {
		rec, err := RecordFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
