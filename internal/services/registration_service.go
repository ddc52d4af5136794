package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/store"
)

type RegistrationService struct {
	store        store.RegistrationStore
	metrics      *metrics.Metrics
	verifier     *Verifier
	validator    *requestValidator
	newNumber    NumberGenerator
	now          func() time.Time
	queryTimeout time.Duration
	maxAttempts  int
	listLimit    int
	requireOTP   bool
}

// NewRegistrationService wires the service to its store. verifier may be
// nil when Aadhaar verification is not enforced.
func NewRegistrationService(st store.RegistrationStore, cfg *config.Config, m *metrics.Metrics, verifier *Verifier) *RegistrationService {
	return &RegistrationService{
		store:        st,
		metrics:      m,
		verifier:     verifier,
		validator:    newRequestValidator(),
		newNumber:    RandomNumberGenerator(cfg.RegistrationNumberPrefix),
		now:          time.Now,
		queryTimeout: cfg.QueryTimeout,
		maxAttempts:  cfg.RegistrationNumberMaxAttempts,
		listLimit:    cfg.RegistrationListLimit,
		requireOTP:   cfg.RequireAadhaarVerification && verifier != nil,
	}
}

// WithNumberGenerator replaces the registration number source.
func (s *RegistrationService) WithNumberGenerator(gen NumberGenerator) *RegistrationService {
	s.newNumber = gen
	return s
}

// Create normalizes and validates req, checks the unique keys and inserts
// one row. The
// pre-insert lookups are a fast path only; a unique violation raised by the
// store on insert yields the same errors.
func (s *RegistrationService) Create(ctx context.Context, req *dto.RegistrationRequest) (*dto.CreateRegistrationResponse, error) {
	req.Normalize()
	if err := s.validator.Validate(req); err != nil {
		var fe *FieldError
		if errors.As(err, &fe) && fe.Missing {
			s.metrics.IncrementRejected(metrics.ReasonMissingField)
		} else {
			s.metrics.IncrementRejected(metrics.ReasonInvalidField)
		}
		return nil, err
	}

	if s.requireOTP {
		if err := s.verifier.Check(req.VerificationToken, req.Aadhaar); err != nil {
			s.metrics.IncrementRejected(metrics.ReasonUnverified)
			return nil, ErrAadhaarNotVerified
		}
	}

	if err := s.ensureAbsent(ctx, s.store.FindByAadhaar, req.Aadhaar, ErrAadhaarTaken); err != nil {
		return nil, err
	}
	if err := s.ensureAbsent(ctx, s.store.FindByPAN, req.PAN, ErrPANTaken); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		now := s.now()
		number, err := s.newNumber(now)
		if err != nil {
			return nil, err
		}

		taken, err := s.numberTaken(ctx, number)
		if err != nil {
			return nil, err
		}
		if taken {
			s.metrics.IncrementCollisions()
			continue
		}

		reg := &models.Registration{
			Aadhaar:            req.Aadhaar,
			NameAsPerAadhaar:   req.NameAsPerAadhaar,
			TypeOfOrganisation: req.TypeOfOrganisation,
			PAN:                req.PAN,
			Mobile:             req.Mobile,
			Email:              req.Email,
			SocialCategory:     req.SocialCategory,
			Gender:             req.Gender,
			SpeciallyAbled:     req.SpeciallyAbled.Bool(),
			NameOfEnterprise:   req.NameOfEnterprise,
			MajorActivity:      req.MajorActivity,
			RegistrationNumber: number,
			RegistrationDate:   now.UTC(),
		}

		err = s.insert(ctx, reg)
		if err == nil {
			s.metrics.IncrementCreated()
			slog.Info("registration created", "id", reg.ID, "registration_number", reg.RegistrationNumber)
			return &dto.CreateRegistrationResponse{
				RegistrationNumber: reg.RegistrationNumber,
				RegistrationDate:   reg.RegistrationDate,
				ID:                 reg.ID,
			}, nil
		}

		switch store.DuplicateKey(err) {
		case store.KeyRegistrationNumber:
			s.metrics.IncrementCollisions()
			continue
		case store.KeyAadhaar:
			s.metrics.IncrementRejected(metrics.ReasonDuplicate)
			return nil, ErrAadhaarTaken
		case store.KeyPAN:
			s.metrics.IncrementRejected(metrics.ReasonDuplicate)
			return nil, ErrPANTaken
		}
		if errors.Is(err, store.ErrDuplicate) {
			s.metrics.IncrementRejected(metrics.ReasonDuplicate)
			return nil, ErrAlreadyRegistered
		}
		return nil, err
	}

	return nil, ErrNumberExhausted
}

func (s *RegistrationService) GetByRegistrationNumber(ctx context.Context, number string) (*models.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	return notFound(s.store.FindByRegistrationNumber(ctx, number))
}

func (s *RegistrationService) GetByAadhaar(ctx context.Context, aadhaar string) (*models.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	return notFound(s.store.FindByAadhaar(ctx, aadhaar))
}

func (s *RegistrationService) GetByID(ctx context.Context, id uint) (*models.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	return notFound(s.store.FindByID(ctx, id))
}

// ListRecent returns the newest registrations, bounded by the configured
// list limit.
func (s *RegistrationService) ListRecent(ctx context.Context) ([]models.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	regs, err := s.store.ListRecent(ctx, s.listLimit)
	if err != nil {
		return nil, err
	}
	if regs == nil {
		regs = []models.Registration{}
	}
	return regs, nil
}

func (s *RegistrationService) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	return s.store.Ping(ctx)
}

func (s *RegistrationService) ensureAbsent(
	ctx context.Context,
	find func(context.Context, string) (*models.Registration, error),
	value string,
	taken error,
) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	_, err := find(ctx, value)
	switch {
	case err == nil:
		s.metrics.IncrementRejected(metrics.ReasonDuplicate)
		return taken
	case errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("failed to check existing registration: %w", err)
	}
}

func (s *RegistrationService) numberTaken(ctx context.Context, number string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	_, err := s.store.FindByRegistrationNumber(ctx, number)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("failed to check registration number: %w", err)
	}
}

func (s *RegistrationService) insert(ctx context.Context, reg *models.Registration) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	return s.store.Create(ctx, reg)
}

func notFound(reg *models.Registration, err error) (*models.Registration, error) {
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRegistrationNotFound
	}
	return reg, err
}
