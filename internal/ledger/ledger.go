// Package ledger is the Balance Ledger (spec §4.5): every balance mutation
// goes through it as a single append-only BalanceTransaction plus an
// atomically-updated LeaveBalance snapshot, inside one database
// transaction.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cristian75IT/kronos-core/internal/corekit"
	"github.com/cristian75IT/kronos-core/internal/model"
	"github.com/cristian75IT/kronos-core/internal/repository"
)

type balanceRepoForLedger interface {
	GetSnapshotForUpdateTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, year int) (*model.LeaveBalance, error)
	CreateSnapshotTx(ctx context.Context, tx *gorm.DB, bal *model.LeaveBalance) error
	UpdateSnapshotTx(ctx context.Context, tx *gorm.DB, bal *model.LeaveBalance) error
	AppendTransactionTx(ctx context.Context, tx *gorm.DB, txn *model.BalanceTransaction) error
	ExistsByDedupeKeyTx(ctx context.Context, tx *gorm.DB, dedupeKey string) (bool, error)
}

// Service applies ledger mutations (spec §4.5 steps 1-6). Every method must
// be called with a tx already opened by the caller's transaction boundary
// (spec §5: "each request handler owns exactly one transaction").
type Service struct {
	repo balanceRepoForLedger
}

func NewService(repo balanceRepoForLedger) *Service {
	return &Service{repo: repo}
}

// Entry describes one bucket mutation to post.
type Entry struct {
	UserID          uuid.UUID
	Year            int
	BalanceType     model.BalanceType
	TransactionType model.BalanceTransactionType
	// Amount is signed: positive for accrual/restore, negative for deduct.
	Amount         decimal.Decimal
	LeaveRequestID *uuid.UUID
	DedupeKey      string
	// AllowNegative disables the available-balance clamp (from the leave
	// type's allow_negative_balance flag, spec §4.3).
	AllowNegative bool
}

// Apply posts a single ledger entry: reads (or creates) the snapshot row
// under a row lock, clamps a withdrawal against availability unless
// AllowNegative, writes the BalanceTransaction, and updates the snapshot.
// If DedupeKey is already present it posts nothing and returns nil
// (idempotent retry, spec §5).
func (s *Service) Apply(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if entry.DedupeKey != "" {
		exists, err := s.repo.ExistsByDedupeKeyTx(ctx, tx, entry.DedupeKey)
		if err != nil {
			return fmt.Errorf("ledger: dedupe check: %w", err)
		}
		if exists {
			return nil
		}
	}

	bal, err := s.repo.GetSnapshotForUpdateTx(ctx, tx, entry.UserID, entry.Year)
	if errors.Is(err, repository.ErrLeaveBalanceNotFound) {
		bal = &model.LeaveBalance{UserID: entry.UserID, Year: entry.Year}
		if err := s.repo.CreateSnapshotTx(ctx, tx, bal); err != nil {
			return fmt.Errorf("ledger: create snapshot: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("ledger: load snapshot: %w", err)
	}

	if entry.Amount.IsNegative() && !entry.AllowNegative {
		available := bal.Available(entry.BalanceType)
		if available.Add(entry.Amount).IsNegative() {
			return corekit.New(corekit.KindBusinessRuleViolation, "insufficient balance").
				WithDetail(map[string]string{
					"balance_type": string(entry.BalanceType),
					"available":    available.String(),
					"requested":    entry.Amount.Abs().String(),
				})
		}
	}

	// ApplyUsedDelta adds to the bucket's Used column (positive=consume);
	// the ledger's Amount convention is signed credit (positive=accrual/
	// restore, negative=deduct), so Used moves by -Amount.
	bal.ApplyUsedDelta(entry.BalanceType, entry.Amount.Neg())

	balanceAfter := bal.Available(entry.BalanceType)

	txn := &model.BalanceTransaction{
		UserID:          entry.UserID,
		Year:            entry.Year,
		BalanceType:     entry.BalanceType,
		TransactionType: entry.TransactionType,
		Amount:          entry.Amount,
		BalanceAfter:    balanceAfter,
		LeaveRequestID:  entry.LeaveRequestID,
		DedupeKey:       entry.DedupeKey,
	}
	if err := s.repo.AppendTransactionTx(ctx, tx, txn); err != nil {
		return fmt.Errorf("ledger: append transaction: %w", err)
	}
	if err := s.repo.UpdateSnapshotTx(ctx, tx, bal); err != nil {
		return fmt.Errorf("ledger: update snapshot: %w", err)
	}
	return nil
}

// Deduct posts a negative entry for days consumed by an approved request.
func (s *Service) Deduct(ctx context.Context, tx *gorm.DB, userID uuid.UUID, year int, bt model.BalanceType, days decimal.Decimal, leaveRequestID uuid.UUID, allowNegative bool, dedupeKey string) error {
	return s.Apply(ctx, tx, Entry{
		UserID:          userID,
		Year:            year,
		BalanceType:     bt,
		TransactionType: model.TransactionDeduct,
		Amount:          days.Neg(),
		LeaveRequestID:  &leaveRequestID,
		DedupeKey:       dedupeKey,
		AllowNegative:   allowNegative,
	})
}

// Restore posts a positive entry, symmetric to a prior Deduct (spec §4.5:
// "Restore is a symmetric positive entry referencing the same
// leave_request_id").
func (s *Service) Restore(ctx context.Context, tx *gorm.DB, userID uuid.UUID, year int, bt model.BalanceType, days decimal.Decimal, leaveRequestID uuid.UUID, dedupeKey string) error {
	return s.Apply(ctx, tx, Entry{
		UserID:          userID,
		Year:            year,
		BalanceType:     bt,
		TransactionType: model.TransactionRestore,
		Amount:          days,
		LeaveRequestID:  &leaveRequestID,
		DedupeKey:       dedupeKey,
		AllowNegative:   true,
	})
}

// Adjust posts an ADJUST entry (e.g. modify-approved's positive/negative
// delta), always allowing the balance to go negative since the triggering
// operation has already been authorized upstream.
func (s *Service) Adjust(ctx context.Context, tx *gorm.DB, userID uuid.UUID, year int, bt model.BalanceType, delta decimal.Decimal, leaveRequestID uuid.UUID, dedupeKey string) error {
	return s.Apply(ctx, tx, Entry{
		UserID:          userID,
		Year:            year,
		BalanceType:     bt,
		TransactionType: model.TransactionAdjust,
		Amount:          delta,
		LeaveRequestID:  &leaveRequestID,
		DedupeKey:       dedupeKey,
		AllowNegative:   true,
	})
}

// RestoreBucketsDescending restores multiple buckets in the reverse order
// they were deducted, so AP (consumed first) is restored after AC (spec
// §4.5: "issues one entry per bucket affected, in the reverse order of the
// original deduction so that AP is restored after AC"). buckets must be
// supplied in original-deduction order; this reverses internally.
func (s *Service) RestoreBucketsDescending(ctx context.Context, tx *gorm.DB, userID uuid.UUID, year int, buckets []BucketAmount, leaveRequestID uuid.UUID, dedupeKeyPrefix string) error {
	for i := len(buckets) - 1; i >= 0; i-- {
		b := buckets[i]
		if b.Days.IsZero() {
			continue
		}
		dedupe := ""
		if dedupeKeyPrefix != "" {
			dedupe = fmt.Sprintf("%s:%s", dedupeKeyPrefix, b.BalanceType)
		}
		if err := s.Restore(ctx, tx, userID, year, b.BalanceType, b.Days, leaveRequestID, dedupe); err != nil {
			return err
		}
	}
	return nil
}

// BucketAmount pairs a bucket with a day count, used for multi-bucket
// deduction breakdowns (policy engine's balance_breakdown, §4.3) and their
// symmetric restores.
type BucketAmount struct {
	BalanceType model.BalanceType
	Days        decimal.Decimal
}
