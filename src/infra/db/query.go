package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"budgettool/src/core/domain"
)

// Layouts used to render temporal columns.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05.999999"
	TimeLayout      = "15:04:05.999999"
)

var errLeaseReleased = errors.New("lease already released")

// Execute prepares query on the leased connection, runs it and returns every
// row. Column names come from the prepared statement, so a query matching
// no rows still reports its columns. Temporal values are rendered as strings
// and UUIDs in their canonical form.
func Execute(ctx context.Context, l *Lease, query string, args ...any) (*domain.QueryResult, error) {
	if l == nil || l.Released() {
		return nil, &domain.QueryError{Query: query, Err: errLeaseReleased}
	}
	conn := l.Querier()

	// The SQL text doubles as the statement name, so each connection
	// prepares a given query only once.
	sd, err := conn.Prepare(ctx, query, query)
	if err != nil {
		return nil, &domain.QueryError{Query: query, Err: fmt.Errorf("prepare: %w", err)}
	}

	columns := make([]string, len(sd.Fields))
	oids := make([]uint32, len(sd.Fields))
	for i, f := range sd.Fields {
		columns[i] = f.Name
		oids[i] = f.DataTypeOID
	}

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, &domain.QueryError{Query: query, Err: err}
	}
	defer rows.Close()

	result := &domain.QueryResult{Columns: columns, Rows: []domain.Row{}}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, &domain.QueryError{Query: query, Err: fmt.Errorf("decode row: %w", err)}
		}
		row := make(domain.Row, len(columns))
		for i, v := range values {
			if i >= len(columns) {
				break
			}
			row[columns[i]] = normalizeValue(v, oids[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.QueryError{Query: query, Err: err}
	}

	return result, nil
}

// normalizeValue converts driver values that do not survive JSON encoding
// as-is into strings.
func normalizeValue(v any, oid uint32) any {
	switch t := v.(type) {
	case time.Time:
		switch oid {
		case pgtype.DateOID:
			return t.Format(DateLayout)
		case pgtype.TimestampOID:
			return t.Format(TimestampLayout)
		default:
			return t.Format(time.RFC3339Nano)
		}
	case pgtype.Time:
		if !t.Valid {
			return nil
		}
		d := time.Duration(t.Microseconds) * time.Microsecond
		return time.Time{}.Add(d).Format(TimeLayout)
	case pgtype.InfinityModifier:
		return t.String()
	case [16]byte:
		if oid == pgtype.UUIDOID {
			return uuid.UUID(t).String()
		}
	}
	return v
}
