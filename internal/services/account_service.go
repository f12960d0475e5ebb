// internal/services/account_service.go
package services

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/Corphon/FunnelCraft/internal/errors"
	"github.com/Corphon/FunnelCraft/internal/funnel"
	"github.com/Corphon/FunnelCraft/internal/models"
	"github.com/Corphon/FunnelCraft/internal/storage"
	"github.com/Corphon/FunnelCraft/internal/utils"
)

// AccountService owns the per-account phase record. Every write goes
// through Update so read-modify-write cycles on one account are serialized.
type AccountService struct {
	store storage.RecordStore
	locks *LockManager
	now   func() time.Time
}

// NewAccountService 创建账户服务
func NewAccountService(store storage.RecordStore, locks *LockManager) *AccountService {
	if locks == nil {
		locks = NewLockManager()
	}
	return &AccountService{store: store, locks: locks, now: time.Now}
}

// Get loads the record. A missing record is a not_found AppError.
func (s *AccountService) Get(ctx context.Context, accountID string) (*models.PhaseRecord, error) {
	if err := storage.ValidateAccountID(accountID); err != nil {
		return nil, apperrors.NewValidationError("invalid account id", err)
	}
	rec, err := s.store.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("account has no saved progress", err)
		}
		return nil, apperrors.NewStorageError("failed to load account record", err)
	}
	return rec, nil
}

// GetOrEmpty returns the record, or a fresh one when none is stored yet.
func (s *AccountService) GetOrEmpty(ctx context.Context, accountID string) (*models.PhaseRecord, error) {
	rec, err := s.Get(ctx, accountID)
	if apperrors.IsNotFoundError(err) {
		return models.NewPhaseRecord(accountID), nil
	}
	return rec, err
}

// Update applies fn to the account's record (creating it if needed) and
// stores the result. fn errors abort the write and are returned as is.
func (s *AccountService) Update(ctx context.Context, accountID string, fn func(rec *models.PhaseRecord) error) (*models.PhaseRecord, error) {
	var out *models.PhaseRecord
	err := s.locks.WithAccountLock(accountID, func() error {
		rec, err := s.GetOrEmpty(ctx, accountID)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
		rec.UpdatedAt = s.now().UTC()
		if err := s.store.Put(ctx, rec); err != nil {
			utils.GetLogger().Error("failed to save account record", map[string]interface{}{
				"account_id": accountID,
				"error":      err.Error(),
			})
			return apperrors.NewStorageError("failed to save account record", err)
		}
		out = rec
		return nil
	})
	return out, err
}

// SetFlag records an explicit confirmation for one progress flag.
func (s *AccountService) SetFlag(ctx context.Context, accountID string, flag models.ProgressFlag, value bool) (*models.PhaseRecord, error) {
	if _, ok := (models.ProgressFlags{}).Get(flag); !ok {
		return nil, apperrors.NewValidationError("unknown progress flag: "+string(flag), nil)
	}
	return s.Update(ctx, accountID, func(rec *models.PhaseRecord) error {
		rec.Flags.Set(flag, value)
		return nil
	})
}

// Progress 计算账户各阶段完成度
func (s *AccountService) Progress(ctx context.Context, accountID string) (funnel.Progress, error) {
	rec, err := s.GetOrEmpty(ctx, accountID)
	if err != nil {
		return funnel.Progress{}, err
	}
	return funnel.ComputeProgress(rec.Flags), nil
}
