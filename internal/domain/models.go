// Package domain defines the persistence models for contracts, daily logs,
// violations, journal entries, temptations, user profiles and briefings.
// These types are mapped with GORM and form the core data layer of the
// accountability service.
//
// Every table carries a user_id column: a user's rows form the subtree that
// atomic lifecycle writes are scoped to. Child records (logs, journal entries,
// violations, temptations) reference their contract by id only, without a
// foreign key, so a voided contract leaves its history in place.
package domain

import (
	"time"
)

// ContractType distinguishes behaviors to perform from behaviors to avoid.
type ContractType string

const (
	ContractDo    ContractType = "DO"
	ContractAvoid ContractType = "AVOID"
)

// ContractStatus is the lifecycle state of a contract.
type ContractStatus string

const (
	StatusActive   ContractStatus = "active"
	StatusPaused   ContractStatus = "paused"
	StatusArchived ContractStatus = "archived"
)

// ContractOutcome is recorded only when a contract is archived.
type ContractOutcome string

const (
	OutcomeCompleted ContractOutcome = "completed"
	OutcomeBreached  ContractOutcome = "breached"
)

// Contract is a standing behavioral rule owned by exactly one user.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID: owner; indexed together with Status for quota counts.
//   - Type: DO or AVOID (enforced by DB constraint).
//   - Streak: consecutive kept days (daily cadence) or weeks (weekly cadence).
//   - Exceptions: short allowed deviations, stored as a JSON array.
//   - StartDate / EndDate: calendar dates (YYYY-MM-DD), not instants.
//   - TimesPerWeek: when set, the contract follows the weekly cadence and the
//     Week* columns hold the current window's progress.
//   - Outcome / FailureReason: set only when archived / breached.
//   - LastCheckInAt / ArchivedAt: wall-clock timestamps (UTC).
type Contract struct {
	ID         string         `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID     string         `json:"user_id"     gorm:"type:varchar(64);not null;index:idx_user_contracts,priority:1"`
	Title      string         `json:"title"       gorm:"type:varchar(255);not null"`
	Behavior   string         `json:"behavior"    gorm:"type:text;not null"`
	Type       ContractType   `json:"type"        gorm:"type:varchar(8);not null;check:type IN ('DO','AVOID')"`
	Pillar     string         `json:"pillar"      gorm:"type:varchar(64);not null"`
	Status     ContractStatus `json:"status"      gorm:"type:varchar(16);not null;default:'active';index:idx_user_contracts,priority:2"`
	Streak     int            `json:"streak"      gorm:"not null;default:0;check:streak >= 0"`
	Exceptions []string       `json:"exceptions"  gorm:"type:text;serializer:json"`
	Penalty    string         `json:"penalty"     gorm:"type:text"`
	StartDate  *string        `json:"start_date,omitempty" gorm:"type:varchar(10)"`
	EndDate    *string        `json:"end_date,omitempty"   gorm:"type:varchar(10)"`

	TimesPerWeek       *int    `json:"times_per_week,omitempty"`
	WeekStart          *string `json:"week_start,omitempty"         gorm:"type:varchar(10)"`
	WeekCompletedCount int     `json:"week_completed_count"         gorm:"not null;default:0"`
	WeekLastCheckIn    *string `json:"week_last_check_in,omitempty" gorm:"type:varchar(10)"`

	AutoKeep      bool             `json:"auto_keep"      gorm:"not null;default:false"`
	Outcome       *ContractOutcome `json:"outcome,omitempty"        gorm:"type:varchar(16)"`
	FailureReason *string          `json:"failure_reason,omitempty" gorm:"type:text"`
	WitnessLinked bool             `json:"witness_linked" gorm:"not null;default:false"`

	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastCheckInAt *time.Time `json:"last_check_in_at,omitempty"`
	ArchivedAt    *time.Time `json:"archived_at,omitempty"`
}

// TableName returns the database table name for Contract.
func (Contract) TableName() string { return "contracts" }

// LogStatus is the outcome recorded for one contract on one calendar day.
type LogStatus string

const (
	LogKept      LogStatus = "kept"
	LogBroken    LogStatus = "broken"
	LogException LogStatus = "exception"
)

// Valid reports whether s is one of the known log statuses.
func (s LogStatus) Valid() bool {
	switch s {
	case LogKept, LogBroken, LogException:
		return true
	}
	return false
}

// LogSource tells manual check-ins apart from scheduled auto-keep credits.
type LogSource string

const (
	SourceManual LogSource = "manual"
	SourceAuto   LogSource = "auto"
)

// DailyLog marks the outcome of one contract on one calendar date. The
// (contract_id, date) pair is unique so concurrent check-ins cannot both land.
type DailyLog struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID     string    `json:"user_id"     gorm:"type:varchar(64);not null;index:idx_user_log_date,priority:1"`
	ContractID string    `json:"contract_id" gorm:"type:char(36);not null;uniqueIndex:ux_log_contract_date,priority:1"`
	Date       string    `json:"date"        gorm:"type:varchar(10);not null;uniqueIndex:ux_log_contract_date,priority:2;index:idx_user_log_date,priority:2"`
	Status     LogStatus `json:"status"      gorm:"type:varchar(16);not null;check:status IN ('kept','broken','exception')"`
	Notes      string    `json:"notes"       gorm:"type:text"`
	Source     LogSource `json:"source"      gorm:"type:varchar(8);not null;default:'manual'"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for DailyLog.
func (DailyLog) TableName() string { return "daily_logs" }

// Decision is the user's choice after reporting a violation.
type Decision string

const (
	DecisionRecommit Decision = "recommit"
	DecisionPause    Decision = "pause"
	DecisionRetire   Decision = "retire"
)

// Valid reports whether d is a known decision.
func (d Decision) Valid() bool {
	switch d {
	case DecisionRecommit, DecisionPause, DecisionRetire:
		return true
	}
	return false
}

// Violation is an append-only event written together with a broken DailyLog.
// Rows are never updated after insert.
type Violation struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID     string    `json:"user_id"     gorm:"type:varchar(64);not null;index"`
	ContractID string    `json:"contract_id" gorm:"type:char(36);not null;index"`
	Reason     string    `json:"reason"      gorm:"type:varchar(64);not null"`
	Story      string    `json:"story"       gorm:"type:text"`
	Decision   Decision  `json:"decision"    gorm:"type:varchar(16);not null;check:decision IN ('recommit','pause','retire')"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for Violation.
func (Violation) TableName() string { return "violations" }

// JournalType separates user-written entries from scheduler-written ones.
type JournalType string

const (
	JournalManual JournalType = "manual"
	JournalAuto   JournalType = "auto"
)

// JournalEntry is an append-only note on a contract. Manual entries receive at
// most one oracle reply; auto entries never do.
type JournalEntry struct {
	ID         string      `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID     string      `json:"user_id"     gorm:"type:varchar(64);not null;index"`
	ContractID string      `json:"contract_id" gorm:"type:char(36);not null;index:idx_contract_journal,priority:1"`
	Type       JournalType `json:"type"        gorm:"type:varchar(8);not null;check:type IN ('manual','auto')"`
	Content    string      `json:"content"     gorm:"type:text;not null"`
	Reply      *string     `json:"reply,omitempty"      gorm:"type:text"`
	RepliedAt  *time.Time  `json:"replied_at,omitempty"`
	CreatedAt  time.Time   `json:"created_at"  gorm:"index:idx_contract_journal,priority:2"`
}

// TableName returns the database table name for JournalEntry.
func (JournalEntry) TableName() string { return "journal_entries" }

// TemptationOutcome moves from pending to a terminal value exactly once.
type TemptationOutcome string

const (
	TemptationPending  TemptationOutcome = "pending"
	TemptationResisted TemptationOutcome = "resisted"
	TemptationRelapsed TemptationOutcome = "relapsed"
)

// Temptation records an in-the-moment coaching request on a contract.
type Temptation struct {
	ID         string            `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID     string            `json:"user_id"     gorm:"type:varchar(64);not null;index"`
	ContractID string            `json:"contract_id" gorm:"type:char(36);not null;index"`
	Context    string            `json:"context"     gorm:"type:text"`
	Coaching   string            `json:"coaching"    gorm:"type:text"`
	Outcome    TemptationOutcome `json:"outcome"     gorm:"type:varchar(16);not null;default:'pending'"`
	ResolvedAt *time.Time        `json:"resolved_at,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// TableName returns the database table name for Temptation.
func (Temptation) TableName() string { return "temptations" }

// User is the profile row; it exists once a user registers a push token.
type User struct {
	ID        string    `json:"id"                   gorm:"type:varchar(64);primaryKey"`
	PushToken *string   `json:"push_token,omitempty" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// BriefingSlot is the time of day a briefing is generated for.
type BriefingSlot string

const (
	SlotMorning BriefingSlot = "morning"
	SlotEvening BriefingSlot = "evening"
)

// Briefing is one generated coaching text per (user, slot, date).
type Briefing struct {
	ID               string       `json:"id"                gorm:"type:char(36);primaryKey"`
	UserID           string       `json:"user_id"           gorm:"type:varchar(64);not null;uniqueIndex:ux_briefing_user_slot_date,priority:1"`
	Slot             BriefingSlot `json:"slot"              gorm:"type:varchar(8);not null;uniqueIndex:ux_briefing_user_slot_date,priority:2"`
	Date             string       `json:"date"              gorm:"type:varchar(10);not null;uniqueIndex:ux_briefing_user_slot_date,priority:3"`
	Text             string       `json:"text"              gorm:"type:text;not null"`
	NotificationText string       `json:"notification_text" gorm:"type:text;not null"`
	CreatedAt        time.Time    `json:"created_at"`
}

// TableName returns the database table name for Briefing.
func (Briefing) TableName() string { return "briefings" }
