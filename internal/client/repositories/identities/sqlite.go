package identities

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophwalk/internal/common"
	"github.com/dmitrijs2005/gophwalk/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, emailKey string, record []byte) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO identities (email_key, record) VALUES (?, ?)
		ON CONFLICT(email_key) DO NOTHING
	`, emailKey, record)
	if err != nil {
		return fmt.Errorf("failed to insert identity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrDuplicateEmail
	}
	return nil
}

func (r *SQLiteRepository) Put(ctx context.Context, emailKey string, record []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO identities (email_key, record) VALUES (?, ?)
		ON CONFLICT(email_key) DO UPDATE SET record = excluded.record, updated_at = CURRENT_TIMESTAMP
	`, emailKey, record)
	if err != nil {
		return fmt.Errorf("failed to put identity: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, emailKey string) ([]byte, error) {
	var record []byte
	err := r.db.QueryRowContext(ctx, `SELECT record FROM identities WHERE email_key = ?`, emailKey).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}
	return record, nil
}

func (r *SQLiteRepository) List(ctx context.Context) (map[string][]byte, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT email_key, record FROM identities`)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]byte)
	for rows.Next() {
		var key string
		var record []byte
		if err := rows.Scan(&key, &record); err != nil {
			return nil, fmt.Errorf("failed to scan identity row: %w", err)
		}
		result[key] = record
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate identity rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, emailKey string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM identities WHERE email_key = ?`, emailKey); err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM identities`); err != nil {
		return fmt.Errorf("failed to clear identities: %w", err)
	}
	return nil
}
