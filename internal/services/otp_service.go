package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/store"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/validation"
)

const verificationPurpose = "aadhaar_verified"

// OTPService simulates the Aadhaar OTP round trip. No message is sent to a
// phone; in demo mode the code is returned in the response instead.
type OTPService struct {
	store      store.OTPStore
	verifier   *Verifier
	metrics    *metrics.Metrics
	ttl        time.Duration
	demoMode   bool
	bcryptCost int
}

func NewOTPService(st store.OTPStore, verifier *Verifier, m *metrics.Metrics, ttl time.Duration, demoMode bool) *OTPService {
	return &OTPService{
		store:      st,
		verifier:   verifier,
		metrics:    m,
		ttl:        ttl,
		demoMode:   demoMode,
		bcryptCost: bcrypt.DefaultCost,
	}
}

func (s *OTPService) Send(ctx context.Context, req *dto.SendOTPRequest) (*dto.SendOTPResponse, error) {
	if !validation.ValidateAadhaar(req.Aadhaar) {
		return nil, &FieldError{Field: validation.FieldAadhaar, Message: "Invalid Aadhaar number format"}
	}
	if !validation.ValidateName(req.NameAsPerAadhaar) {
		return nil, &FieldError{Field: validation.FieldNameAsPerAadhaar, Message: "Invalid name format"}
	}

	code, err := generateOTP()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash otp: %w", err)
	}
	if err := s.store.Save(ctx, req.Aadhaar, string(hash), s.ttl); err != nil {
		return nil, err
	}
	s.metrics.OTPIssued.Inc()

	resp := &dto.SendOTPResponse{Success: true, Message: "OTP sent successfully"}
	if s.demoMode {
		resp.DemoOTP = code
	}
	return resp, nil
}

// Verify consumes a matching code and returns a verification token bound
// to the Aadhaar number.
func (s *OTPService) Verify(ctx context.Context, req *dto.VerifyOTPRequest) (*dto.VerifyOTPResponse, error) {
	if !validation.ValidateAadhaar(req.Aadhaar) {
		return nil, &FieldError{Field: validation.FieldAadhaar, Message: "Invalid Aadhaar number format"}
	}
	if !validation.ValidateOTP(req.OTP) {
		return nil, &FieldError{Field: validation.FieldOTP, Message: "Invalid OTP format"}
	}

	hash, err := s.store.Get(ctx, req.Aadhaar)
	if errors.Is(err, store.ErrNotFound) {
		s.metrics.OTPVerifications.WithLabelValues("expired").Inc()
		return nil, ErrOTPExpired
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.OTP)); err != nil {
		s.metrics.OTPVerifications.WithLabelValues("mismatch").Inc()
		return nil, ErrInvalidOTP
	}
	consumed, err := s.store.Consume(ctx, req.Aadhaar, hash)
	if err != nil {
		return nil, err
	}
	if !consumed {
		s.metrics.OTPVerifications.WithLabelValues("expired").Inc()
		return nil, ErrOTPExpired
	}
	s.metrics.OTPVerifications.WithLabelValues("ok").Inc()

	token, expiresAt, err := s.verifier.Issue(req.Aadhaar)
	if err != nil {
		return nil, err
	}
	return &dto.VerifyOTPResponse{
		Success:           true,
		Message:           "OTP verified successfully",
		VerificationToken: token,
		ExpiresAt:         expiresAt,
	}, nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", 100_000+n.Int64()), nil
}

type verificationClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Verifier issues and checks the short-lived token proving that an Aadhaar
// number passed OTP verification.
type Verifier struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewVerifier returns a Verifier signing with secret. An empty secret is
// replaced by random bytes, so tokens do not survive a restart.
func NewVerifier(secret string, ttl time.Duration) (*Verifier, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate verification secret: %w", err)
		}
	}
	return &Verifier{secret: key, ttl: ttl, now: time.Now}, nil
}

func (v *Verifier) Issue(aadhaar string) (string, time.Time, error) {
	now := v.now()
	expiresAt := now.Add(v.ttl)
	claims := verificationClaims{
		Purpose: verificationPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   aadhaar,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign verification token: %w", err)
	}
	return signed, expiresAt, nil
}

func (v *Verifier) Check(token, aadhaar string) error {
	if token == "" {
		return ErrAadhaarNotVerified
	}
	var claims verificationClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(v.now))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAadhaarNotVerified, err)
	}
	if claims.Purpose != verificationPurpose || claims.Subject != aadhaar {
		return ErrAadhaarNotVerified
	}
	return nil
}
