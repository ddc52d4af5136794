// Package store persists registrations and one-time codes.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/models"
)

// Unique keys of the registrations table.
const (
	KeyAadhaar            = "aadhaar"
	KeyPAN                = "pan"
	KeyRegistrationNumber = "registration_number"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// DuplicateError reports which unique key rejected an insert.
type DuplicateError struct {
	Key string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s", e.Key)
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicate
}

// DuplicateKey returns the key carried by a *DuplicateError in err's chain,
// or "" when err is not a uniqueness violation.
func DuplicateKey(err error) string {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return dup.Key
	}
	return ""
}

//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks RegistrationStore

// RegistrationStore is the only owner of registration rows. The unique keys
// it enforces are the final arbiter for concurrent duplicate submissions.
type RegistrationStore interface {
	Create(ctx context.Context, reg *models.Registration) error
	FindByID(ctx context.Context, id uint) (*models.Registration, error)
	FindByAadhaar(ctx context.Context, aadhaar string) (*models.Registration, error)
	FindByPAN(ctx context.Context, pan string) (*models.Registration, error)
	FindByRegistrationNumber(ctx context.Context, number string) (*models.Registration, error)
	ListRecent(ctx context.Context, limit int) ([]models.Registration, error)
	Ping(ctx context.Context) error
}
