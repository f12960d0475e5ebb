// internal/storage/record_file.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/Corphon/FunnelCraft/internal/models"
)

const accountsDir = "accounts"

// FileRecordStore keeps one JSON file per account under accounts/.
type FileRecordStore struct {
	files *FileStorage
}

// NewFileRecordStore opens (creating if needed) a store rooted at dataDir.
func NewFileRecordStore(dataDir string) (*FileRecordStore, error) {
	files, err := NewFileStorage(dataDir)
	if err != nil {
		return nil, err
	}
	return &FileRecordStore{files: files}, nil
}

func recordFile(accountID string) string {
	return accountID + ".json"
}

func (s *FileRecordStore) Get(ctx context.Context, accountID string) (*models.PhaseRecord, error) {
	if err := ValidateAccountID(accountID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec models.PhaseRecord
	if err := s.files.LoadJSONFile(accountsDir, recordFile(accountID), &rec); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
		}
		return nil, fmt.Errorf("loading account %s: %w", accountID, err)
	}
	return &rec, nil
}

func (s *FileRecordStore) Put(ctx context.Context, rec *models.PhaseRecord) error {
	if err := ValidateAccountID(rec.AccountID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.files.SaveJSONFile(accountsDir, recordFile(rec.AccountID), rec); err != nil {
		return fmt.Errorf("saving account %s: %w", rec.AccountID, err)
	}
	return nil
}

func (s *FileRecordStore) Close() error {
	return s.files.Close()
}
