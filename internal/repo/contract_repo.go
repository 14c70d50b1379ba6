// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Contract
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Every query is scoped by user_id.
//
// Error semantics:
//   - When a contract is not found (or is owned by someone else), functions
//     return gorm.ErrRecordNotFound, exported here as ErrNotFound.
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Usage:
//
//	c, err := repo.GetContract(ctx, tx, id, userID)
//	if errors.Is(err, repo.ErrNotFound) {
//	    // handle missing
//	}
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/pactkeeper/internal/domain"
)

// CreateContract inserts c. An empty ID is replaced with a random UUID and
// zero timestamps are set to the current UTC time.
func CreateContract(ctx context.Context, db *gorm.DB, c *domain.Contract) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}
	return db.WithContext(ctx).Create(c).Error
}

// GetContract fetches a single contract by its ID and owner.
func GetContract(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Contract, error) {
	var c domain.Contract
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveContract writes every column of c and bumps UpdatedAt.
func SaveContract(ctx context.Context, db *gorm.DB, c *domain.Contract) error {
	c.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).Save(c).Error
}

// DeleteContract hard-deletes the contract row. Child rows are not touched.
func DeleteContract(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Contract{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountContracts returns how many contracts userID owns, optionally filtered
// by status (empty = all).
func CountContracts(ctx context.Context, db *gorm.DB, userID string, status domain.ContractStatus) (int64, error) {
	var total int64
	q := db.WithContext(ctx).Model(&domain.Contract{}).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Count(&total).Error
	return total, err
}

// ListContractsPage returns a page of contracts for userID ordered by
// creation time descending. limit <= 0 returns every row.
func ListContractsPage(ctx context.Context, db *gorm.DB, userID string, status domain.ContractStatus, offset, limit int) ([]domain.Contract, error) {
	var out []domain.Contract
	q := db.WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	q = q.Order("created_at desc").Order("id")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// ListActiveWeekly returns the user's active contracts on a weekly cadence.
func ListActiveWeekly(ctx context.Context, db *gorm.DB, userID string) ([]domain.Contract, error) {
	var out []domain.Contract
	err := db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND times_per_week IS NOT NULL", userID, domain.StatusActive).
		Order("created_at").
		Find(&out).Error
	return out, err
}

// ListActiveAutoKeep returns the user's active AVOID contracts opted into
// auto-keep.
func ListActiveAutoKeep(ctx context.Context, db *gorm.DB, userID string) ([]domain.Contract, error) {
	var out []domain.Contract
	err := db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND type = ? AND auto_keep = ?",
			userID, domain.StatusActive, domain.ContractAvoid, true).
		Order("created_at").
		Find(&out).Error
	return out, err
}

// ListContractOwners returns the distinct user IDs owning at least one
// contract with the given status (empty = any).
func ListContractOwners(ctx context.Context, db *gorm.DB, status domain.ContractStatus) ([]string, error) {
	var ids []string
	q := db.WithContext(ctx).Model(&domain.Contract{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Distinct("user_id").Order("user_id").Pluck("user_id", &ids).Error
	return ids, err
}
