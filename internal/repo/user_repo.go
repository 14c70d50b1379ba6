package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/pactkeeper/internal/domain"
)

// UpsertPushToken creates the profile if needed and sets (or clears, when
// token is nil) its push token.
func UpsertPushToken(ctx context.Context, db *gorm.DB, userID string, token *string) (*domain.User, error) {
	now := time.Now().UTC()
	u := &domain.User{ID: userID, PushToken: token, CreatedAt: now, UpdatedAt: now}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{"push_token": token, "updated_at": now}),
	}).Create(u).Error
	if err != nil {
		return nil, err
	}
	return GetUser(ctx, db, userID)
}

// GetUser fetches a profile row.
func GetUser(ctx context.Context, db *gorm.DB, userID string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", userID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsersWithPushToken returns every profile with a non-empty push token.
func ListUsersWithPushToken(ctx context.Context, db *gorm.DB) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Where("push_token IS NOT NULL AND push_token <> ''").
		Order("id").
		Find(&out).Error
	return out, err
}

// CreateBriefing persists a briefing. A second briefing for the same
// (user, slot, date) returns ErrDuplicate.
func CreateBriefing(ctx context.Context, db *gorm.DB, b *domain.Briefing) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(b).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// BriefingExists reports whether a briefing for (user, slot, date) exists.
func BriefingExists(ctx context.Context, db *gorm.DB, userID string, slot domain.BriefingSlot, date string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Briefing{}).
		Where("user_id = ? AND slot = ? AND date = ?", userID, slot, date).
		Count(&n).Error
	return n > 0, err
}

// ListBriefings returns the user's briefings for date, morning first.
func ListBriefings(ctx context.Context, db *gorm.DB, userID, date string) ([]domain.Briefing, error) {
	var out []domain.Briefing
	err := db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Order("slot desc").
		Find(&out).Error
	return out, err
}

// ClaimSettlement inserts the guard row for (job, user, period). It returns
// ErrDuplicate when the period was already settled for that user.
func ClaimSettlement(ctx context.Context, db *gorm.DB, job, userID, period string) error {
	run := &domain.SettlementRun{
		ID:        uuid.NewString(),
		Job:       job,
		UserID:    userID,
		Period:    period,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(run).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}
