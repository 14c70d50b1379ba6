// Package services – CheckInService
//
// CheckInService records the daily outcome of a contract. The log insert,
// the streak/progress update and the optional idempotency record commit in
// one transaction. A (contract_id, date) unique index backs the "one log per
// day" rule, so two concurrent check-ins cannot both succeed.
package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/pactkeeper/internal/domain"
	"github.com/tbourn/pactkeeper/internal/repo"
)

// CheckInInput is one check-in request.
type CheckInInput struct {
	Status         domain.LogStatus
	Notes          string
	IdempotencyKey string
}

// CheckInResult is the created (or replayed) log and the contract after it.
type CheckInResult struct {
	Log      *domain.DailyLog
	Contract *domain.Contract
	Replayed bool
}

// CheckInService records check-ins and lists logs.
type CheckInService struct {
	DB *gorm.DB
	Calendar

	// IdempotencyTTL bounds how long a key is remembered.
	IdempotencyTTL time.Duration

	Notifier ChangeNotifier
}

// NewCheckInService constructs a CheckInService with a 24h idempotency window.
func NewCheckInService(db *gorm.DB, cal Calendar) *CheckInService {
	return &CheckInService{DB: db, Calendar: cal, IdempotencyTTL: 24 * time.Hour}
}

// CheckIn records status for today on contractID.
//
// Preconditions, checked in order: the contract exists and is owned by the
// caller, it is active, status is valid, and no log exists for today. With a
// non-empty idempotency key, a retried request returns the log created by the
// first one instead of ErrAlreadyCheckedIn.
func (s *CheckInService) CheckIn(ctx context.Context, userID, contractID string, in CheckInInput) (*CheckInResult, error) {
	ctx, span := otel.Tracer("services/CheckInService").Start(ctx, "CheckIn",
		trace.WithAttributes(
			attribute.String("contract.id", contractID),
			attribute.String("user.id", userID),
			attribute.String("status", string(in.Status)),
		))
	defer span.End()

	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		if res, err := s.replay(ctx, userID, contractID, key); err == nil {
			return res, nil
		} else if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
	}

	today := s.Today()
	now := s.now()
	var out CheckInResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := repo.GetContract(ctx, tx, contractID, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrContractNotFound
		}
		if err != nil {
			return err
		}
		if c.Status != domain.StatusActive {
			return ErrContractNotActive
		}
		if !in.Status.Valid() {
			return ErrInvalidStatus
		}
		if _, err := repo.GetLogForDate(ctx, tx, contractID, today); err == nil {
			return ErrAlreadyCheckedIn
		} else if !errors.Is(err, repo.ErrNotFound) {
			return err
		}

		l := &domain.DailyLog{
			UserID:     userID,
			ContractID: contractID,
			Date:       today,
			Status:     in.Status,
			Notes:      strings.TrimSpace(in.Notes),
			Source:     domain.SourceManual,
			CreatedAt:  now,
		}
		if err := repo.CreateLog(ctx, tx, l); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return ErrAlreadyCheckedIn
			}
			return err
		}
		if err := applyCheckIn(c, in.Status, today, now); err != nil {
			return err
		}
		if err := c.CheckInvariants(0); err != nil {
			return err
		}
		if err := repo.SaveContract(ctx, tx, c); err != nil {
			return err
		}
		if key != "" {
			if _, err := repo.CreateIdempotency(ctx, tx, userID, contractID, key, l.ID, http.StatusCreated, s.ttl()); err != nil {
				return err
			}
		}
		out = CheckInResult{Log: l, Contract: c}
		return nil
	})
	if err != nil {
		// A concurrent request with the same key won the race; answer with its log.
		if key != "" && (errors.Is(err, repo.ErrDuplicate) || errors.Is(err, ErrAlreadyCheckedIn)) {
			if res, rerr := s.replay(ctx, userID, contractID, key); rerr == nil {
				return res, nil
			}
		}
		return nil, err
	}
	notify(s.Notifier, userID)
	return &out, nil
}

func (s *CheckInService) replay(ctx context.Context, userID, contractID, key string) (*CheckInResult, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, contractID, key, s.now())
	if err != nil {
		return nil, err
	}
	l, err := repo.GetLog(ctx, s.DB, rec.ResourceID, userID)
	if err != nil {
		return nil, err
	}
	res := &CheckInResult{Log: l, Replayed: true}
	if c, err := repo.GetContract(ctx, s.DB, contractID, userID); err == nil {
		res.Contract = c
	}
	return res, nil
}

func (s *CheckInService) ttl() time.Duration {
	if s.IdempotencyTTL <= 0 {
		return 24 * time.Hour
	}
	return s.IdempotencyTTL
}

// LogStats returns the log count and latest log update for a contract the
// caller owns. Handlers derive log ETags from it.
func (s *CheckInService) LogStats(ctx context.Context, userID, contractID string) (int64, *time.Time, error) {
	return repo.LogsStats(ctx, s.DB, contractID, userID)
}

// ListLogs returns a page of the contract's logs, newest date first.
func (s *CheckInService) ListLogs(ctx context.Context, userID, contractID string, page, pageSize int) ([]domain.DailyLog, int64, error) {
	if _, err := repo.GetContract(ctx, s.DB, contractID, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, 0, ErrContractNotFound
		}
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 30
	}
	total, err := repo.CountLogs(ctx, s.DB, contractID, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.DailyLog{}, 0, nil
	}
	items, err := repo.ListLogsPage(ctx, s.DB, contractID, userID, (page-1)*pageSize, pageSize)
	return items, total, err
}
