package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/pactkeeper/internal/domain"
)

// CreateLog inserts a daily log. A second log for the same (contract, date)
// returns ErrDuplicate.
func CreateLog(ctx context.Context, db *gorm.DB, l *domain.DailyLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	if l.Source == "" {
		l.Source = domain.SourceManual
	}
	if err := db.WithContext(ctx).Create(l).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetLogForDate returns the log of contractID on date, or ErrNotFound.
func GetLogForDate(ctx context.Context, db *gorm.DB, contractID, date string) (*domain.DailyLog, error) {
	var l domain.DailyLog
	err := db.WithContext(ctx).
		Where("contract_id = ? AND date = ?", contractID, date).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetLog fetches a log by id and owner.
func GetLog(ctx context.Context, db *gorm.DB, id, userID string) (*domain.DailyLog, error) {
	var l domain.DailyLog
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateLogOutcome overwrites the status, notes and source of an existing log.
func UpdateLogOutcome(ctx context.Context, db *gorm.DB, id string, status domain.LogStatus, notes string, source domain.LogSource) error {
	res := db.WithContext(ctx).
		Model(&domain.DailyLog{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "notes": notes, "source": source})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListLogsPage returns the logs of a contract, newest date first.
func ListLogsPage(ctx context.Context, db *gorm.DB, contractID, userID string, offset, limit int) ([]domain.DailyLog, error) {
	var out []domain.DailyLog
	q := db.WithContext(ctx).
		Where("contract_id = ? AND user_id = ?", contractID, userID).
		Order("date desc").Order("created_at desc")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// CountLogs returns the number of logs for a contract.
func CountLogs(ctx context.Context, db *gorm.DB, contractID, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.DailyLog{}).
		Where("contract_id = ? AND user_id = ?", contractID, userID).
		Count(&total).Error
	return total, err
}

// LoggedContractIDs returns the set of contract IDs that already have a log
// for date, fetched in a single query for the whole user.
func LoggedContractIDs(ctx context.Context, db *gorm.DB, userID, date string) (map[string]struct{}, error) {
	var ids []string
	if err := db.WithContext(ctx).
		Model(&domain.DailyLog{}).
		Where("user_id = ? AND date = ?", userID, date).
		Pluck("contract_id", &ids).Error; err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
