package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

var constraintKeys = map[string]string{
	"idx_registrations_aadhaar": KeyAadhaar,
	"idx_registrations_pan":     KeyPAN,
	"idx_registrations_number":  KeyRegistrationNumber,
}

// GormStore keeps registrations in the relational database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, reg *models.Registration) error {
	if err := s.db.WithContext(ctx).Create(reg).Error; err != nil {
		if dup := translateUnique(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

func (s *GormStore) FindByID(ctx context.Context, id uint) (*models.Registration, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *GormStore) FindByAadhaar(ctx context.Context, aadhaar string) (*models.Registration, error) {
	return s.first(ctx, "aadhaar = ?", aadhaar)
}

func (s *GormStore) FindByPAN(ctx context.Context, pan string) (*models.Registration, error) {
	return s.first(ctx, "pan = ?", pan)
}

func (s *GormStore) FindByRegistrationNumber(ctx context.Context, number string) (*models.Registration, error) {
	return s.first(ctx, "registration_number = ?", number)
}

func (s *GormStore) ListRecent(ctx context.Context, limit int) ([]models.Registration, error) {
	var regs []models.Registration
	q := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&regs).Error; err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return regs, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) first(ctx context.Context, query string, arg any) (*models.Registration, error) {
	var reg models.Registration
	err := s.db.WithContext(ctx).Where(query, arg).First(&reg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query registration: %w", err)
	}
	return &reg, nil
}

// translateUnique maps a unique-index violation to a *DuplicateError, or
// returns nil for any other error.
func translateUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &DuplicateError{Key: constraintKeys[pgErr.ConstraintName]}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &DuplicateError{}
	}
	return nil
}
