package database

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// PSQL is a squirrel builder producing $n placeholders.
var PSQL = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// GetBuilt runs a built SELECT expecting one row.
func (db *DB) GetBuilt(ctx context.Context, dest interface{}, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	return db.Conn(ctx).GetContext(ctx, dest, query, args...)
}

// SelectBuilt runs a built SELECT into a slice.
func (db *DB) SelectBuilt(ctx context.Context, dest interface{}, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	return db.Conn(ctx).SelectContext(ctx, dest, query, args...)
}

// ExecBuilt runs a built INSERT/UPDATE/DELETE.
func (db *DB) ExecBuilt(ctx context.Context, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	return db.Conn(ctx).ExecContext(ctx, query, args...)
}

// Changes collects column assignments for partial updates. Nil pointers are skipped.
type Changes map[string]interface{}

// Set records value under column when value is not a nil pointer.
func (c Changes) Set(column string, value interface{}) Changes {
	if isNilPointer(value) {
		return c
	}
	c[column] = deref(value)
	return c
}

// Empty reports whether nothing will be updated.
func (c Changes) Empty() bool {
	return len(c) == 0
}

func isNilPointer(v interface{}) bool {
	switch p := v.(type) {
	case nil:
		return true
	case *string:
		return p == nil
	case *bool:
		return p == nil
	case *int:
		return p == nil
	case *float64:
		return p == nil
	case *time.Time:
		return p == nil
	}
	return false
}

func deref(v interface{}) interface{} {
	switch p := v.(type) {
	case *string:
		return *p
	case *bool:
		return *p
	case *int:
		return *p
	case *float64:
		return *p
	case *time.Time:
		return *p
	}
	return v
}
