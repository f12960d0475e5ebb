// internal/storage/store.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/Corphon/FunnelCraft/internal/models"
)

// ErrNotFound is returned when no record exists for an account.
var ErrNotFound = errors.New("record not found")

// RecordStore reads and writes the per-account phase record. Put replaces
// the whole record (last write wins); callers serialize read-modify-write
// per account.
type RecordStore interface {
	Get(ctx context.Context, accountID string) (*models.PhaseRecord, error)
	Put(ctx context.Context, rec *models.PhaseRecord) error
	Close() error
}

var accountIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateAccountID rejects IDs that could escape the data directory or
// bloat keys.
func ValidateAccountID(id string) error {
	if !accountIDPattern.MatchString(id) {
		return fmt.Errorf("invalid account id %q", id)
	}
	return nil
}
