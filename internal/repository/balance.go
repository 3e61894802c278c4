package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cristian75IT/kronos-core/internal/model"
)

var ErrLeaveBalanceNotFound = errors.New("leave balance not found")

// BalanceRepository handles the append-only ledger and its derived
// per-(user,year) snapshot (spec §4.5).
type BalanceRepository struct {
	db *DB
}

func NewBalanceRepository(db *DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// GetSnapshotForUpdateTx locks the (user, year) snapshot row for the
// duration of the caller's transaction, so concurrent deduct/restore calls
// for the same bucket serialize (spec §5).
func (r *BalanceRepository) GetSnapshotForUpdateTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, year int) (*model.LeaveBalance, error) {
	var bal model.LeaveBalance
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND year = ?", userID, year).
		First(&bal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLeaveBalanceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock leave balance snapshot: %w", err)
	}
	return &bal, nil
}

func (r *BalanceRepository) GetSnapshot(ctx context.Context, userID uuid.UUID, year int) (*model.LeaveBalance, error) {
	var bal model.LeaveBalance
	err := r.db.GORM.WithContext(ctx).
		Where("user_id = ? AND year = ?", userID, year).
		First(&bal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLeaveBalanceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get leave balance snapshot: %w", err)
	}
	return &bal, nil
}

func (r *BalanceRepository) CreateSnapshotTx(ctx context.Context, tx *gorm.DB, bal *model.LeaveBalance) error {
	return tx.WithContext(ctx).Create(bal).Error
}

func (r *BalanceRepository) UpdateSnapshotTx(ctx context.Context, tx *gorm.DB, bal *model.LeaveBalance) error {
	return tx.WithContext(ctx).Save(bal).Error
}

// AppendTransactionTx inserts one ledger entry. dedupe_key carries a plain
// (non-unique) index; the idempotency guarantee of spec §5 comes from the
// caller checking ExistsByDedupeKeyTx before the insert, as ledger.Apply
// does, and an insert error is returned to the caller as is.
func (r *BalanceRepository) AppendTransactionTx(ctx context.Context, tx *gorm.DB, txn *model.BalanceTransaction) error {
	return tx.WithContext(ctx).Create(txn).Error
}

// ExistsByDedupeKeyTx reports whether a transaction with the given dedupe
// key has already been posted, letting callers short-circuit before
// attempting the insert.
func (r *BalanceRepository) ExistsByDedupeKeyTx(ctx context.Context, tx *gorm.DB, dedupeKey string) (bool, error) {
	if dedupeKey == "" {
		return false, nil
	}
	var count int64
	err := tx.WithContext(ctx).Model(&model.BalanceTransaction{}).
		Where("dedupe_key = ?", dedupeKey).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check dedupe key: %w", err)
	}
	return count > 0, nil
}

func (r *BalanceRepository) ListTransactions(ctx context.Context, userID uuid.UUID, year int) ([]model.BalanceTransaction, error) {
	var txns []model.BalanceTransaction
	err := r.db.GORM.WithContext(ctx).
		Where("user_id = ? AND year = ?", userID, year).
		Order("created_at ASC").
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list balance transactions: %w", err)
	}
	return txns, nil
}
