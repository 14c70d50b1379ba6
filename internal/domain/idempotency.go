package domain

import "time"

// Idempotency records the resource produced by a previously processed request,
// keyed by (user_id, scope, key). Scope is the resource the request targeted
// (for check-ins, the contract id). A retried request with the same key is
// answered with the stored resource instead of re-running side effects.
type Idempotency struct {
	ID         string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID     string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idem_user_scope_key,priority:1"`
	Scope      string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idem_user_scope_key,priority:2"`
	Key        string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idem_user_scope_key,priority:3"`
	ResourceID string    `gorm:"type:TEXT NOT NULL"`
	Status     int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt  time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt  time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }

// Settlement job names stored in SettlementRun.Job.
const (
	JobWeeklyRollover = "weekly-rollover"
	JobAutoKeep       = "auto-keep"
)

// SettlementRun marks that a scheduled job already settled one user for one
// period (a date, YYYY-MM-DD). The row is inserted inside the same
// transaction as the job's writes, so a second run for the same period fails
// on the unique index and is skipped.
type SettlementRun struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	Job       string    `gorm:"type:varchar(32);not null;uniqueIndex:ux_settlement_job_user_period,priority:1"`
	UserID    string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_settlement_job_user_period,priority:2"`
	Period    string    `gorm:"type:varchar(10);not null;uniqueIndex:ux_settlement_job_user_period,priority:3"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the database table name for SettlementRun.
func (SettlementRun) TableName() string { return "settlement_runs" }
