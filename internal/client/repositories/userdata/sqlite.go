package userdata

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophwalk/internal/client/models"
	"github.com/dmitrijs2005/gophwalk/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Put(ctx context.Context, ownerID string, kind models.DataKind, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_data (owner_id, kind, value) VALUES (?, ?, ?)
		ON CONFLICT(owner_id, kind) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, ownerID, string(kind), value)
	if err != nil {
		return fmt.Errorf("failed to put user data[%s]: %w", kind, err)
	}
	return nil
}

func (r *SQLiteRepository) ListOwner(ctx context.Context, ownerID string) (map[models.DataKind][]byte, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT kind, value FROM user_data WHERE owner_id = ?`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user data: %w", err)
	}
	defer rows.Close()

	result := make(map[models.DataKind][]byte)
	for rows.Next() {
		var kind string
		var value []byte
		if err := rows.Scan(&kind, &value); err != nil {
			return nil, fmt.Errorf("failed to scan user data row: %w", err)
		}
		result[models.DataKind(kind)] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user data rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) DeleteOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_data WHERE owner_id = ?`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user data of owner: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) DeleteKinds(ctx context.Context, kinds []models.DataKind) (int64, error) {
	if len(kinds) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(kinds)), ",")
	args := make([]any, len(kinds))
	for i, k := range kinds {
		args[i] = string(k)
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM user_data WHERE kind IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user data kinds: %w", err)
	}
	return res.RowsAffected()
}
