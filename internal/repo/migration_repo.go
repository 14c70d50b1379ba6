package repo

import (
	"context"

	"gorm.io/gorm"
)

// UserScopedTables lists every table whose rows carry a user_id column, in
// the order the migration utility walks them.
var UserScopedTables = []string{
	"contracts",
	"daily_logs",
	"violations",
	"journal_entries",
	"temptations",
	"briefings",
	"settlement_runs",
	"idempotency",
}

// ListRowIDs returns the primary keys of every row in table owned by userID.
func ListRowIDs(ctx context.Context, db *gorm.DB, table, userID string) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).
		Table(table).
		Where("user_id = ?", userID).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

// ReassignRow moves a single row of table to a new owner.
func ReassignRow(ctx context.Context, db *gorm.DB, table, id, toUser string) error {
	res := db.WithContext(ctx).
		Table(table).
		Where("id = ?", id).
		Update("user_id", toUser)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
