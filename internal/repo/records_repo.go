package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/pactkeeper/internal/domain"
)

// CreateViolation appends a violation record.
func CreateViolation(ctx context.Context, db *gorm.DB, v *domain.Violation) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(v).Error
}

// ListViolations returns a contract's violations, newest first.
func ListViolations(ctx context.Context, db *gorm.DB, contractID, userID string) ([]domain.Violation, error) {
	var out []domain.Violation
	err := db.WithContext(ctx).
		Where("contract_id = ? AND user_id = ?", contractID, userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// CreateJournalEntry appends a journal entry.
func CreateJournalEntry(ctx context.Context, db *gorm.DB, e *domain.JournalEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(e).Error
}

// GetJournalEntry fetches an entry by id and owner.
func GetJournalEntry(ctx context.Context, db *gorm.DB, id, userID string) (*domain.JournalEntry, error) {
	var e domain.JournalEntry
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListJournalEntries returns a contract's entries, newest first. limit <= 0
// returns every row.
func ListJournalEntries(ctx context.Context, db *gorm.DB, contractID, userID string, limit int) ([]domain.JournalEntry, error) {
	var out []domain.JournalEntry
	q := db.WithContext(ctx).
		Where("contract_id = ? AND user_id = ?", contractID, userID).
		Order("created_at desc").Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// ListRecentJournal returns the user's most recent entries across contracts.
func ListRecentJournal(ctx context.Context, db *gorm.DB, userID string, since time.Time, limit int) ([]domain.JournalEntry, error) {
	var out []domain.JournalEntry
	q := db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// SetJournalReply stores the reply only if the entry is a manual one without
// a reply yet. It returns false when nothing was written.
func SetJournalReply(ctx context.Context, db *gorm.DB, id, reply string, at time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.JournalEntry{}).
		Where("id = ? AND type = ? AND reply IS NULL", id, domain.JournalManual).
		Updates(map[string]any{"reply": reply, "replied_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CreateTemptation appends a temptation record.
func CreateTemptation(ctx context.Context, db *gorm.DB, t *domain.Temptation) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Outcome == "" {
		t.Outcome = domain.TemptationPending
	}
	return db.WithContext(ctx).Create(t).Error
}

// GetTemptation fetches a temptation by id and owner.
func GetTemptation(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Temptation, error) {
	var t domain.Temptation
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ResolveTemptation moves a pending temptation to outcome. It returns false
// when the row was no longer pending.
func ResolveTemptation(ctx context.Context, db *gorm.DB, id, userID string, outcome domain.TemptationOutcome, at time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Temptation{}).
		Where("id = ? AND user_id = ? AND outcome = ?", id, userID, domain.TemptationPending).
		Updates(map[string]any{"outcome": outcome, "resolved_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
