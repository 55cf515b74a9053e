package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/householdimport/internal/model"
)

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	err := scanner.Scan(&h.ID, &h.Name)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const householdCols = `HouseholdId, name`

// Replace deletes every household and inserts the given rows in order, in a
// single transaction. On error the previous contents are left as they were.
// It returns the number of rows removed.
func (s *HouseholdStore) Replace(ctx context.Context, households []model.Household) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM households`)
	if err != nil {
		return 0, fmt.Errorf("clear households: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO households (`+householdCols+`) VALUES (?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, h := range households {
		if _, err := stmt.ExecContext(ctx, h.ID, h.Name); err != nil {
			return 0, fmt.Errorf("insert household %d: %w", h.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return removed, nil
}

func (s *HouseholdStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM households`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count households: %w", err)
	}
	return n, nil
}

// Sample returns up to limit households ordered by identifier.
func (s *HouseholdStore) Sample(ctx context.Context, limit int) ([]model.Household, error) {
	return s.query(ctx, `SELECT `+householdCols+` FROM households ORDER BY HouseholdId ASC LIMIT ?`, limit)
}

func (s *HouseholdStore) List(ctx context.Context) ([]model.Household, error) {
	return s.query(ctx, `SELECT `+householdCols+` FROM households ORDER BY HouseholdId ASC`)
}

func (s *HouseholdStore) query(ctx context.Context, query string, args ...any) ([]model.Household, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list households: %w", err)
	}
	defer rows.Close()

	var households []model.Household
	for rows.Next() {
		h, err := scanHousehold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		households = append(households, *h)
	}
	return households, rows.Err()
}
