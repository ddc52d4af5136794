package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/store"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/store/mocks"
)

var registrationNumberPattern = regexp.MustCompile(`^UDYAM-\d{4}-\d{6}$`)

func testConfig() *config.Config {
	return &config.Config{
		QueryTimeout:                  time.Second,
		RegistrationNumberPrefix:      "UDYAM",
		RegistrationNumberMaxAttempts: 10,
		RegistrationListLimit:         100,
	}
}

func validRequest() *dto.RegistrationRequest {
	return &dto.RegistrationRequest{
		Aadhaar:            "123456789012",
		NameAsPerAadhaar:   "Ravi Kumar",
		TypeOfOrganisation: "1",
		PAN:                "ABCDE1234F",
		Mobile:             "9876543210",
		Email:              "ravi@example.com",
		SocialCategory:     "General",
		Gender:             "M",
		SpeciallyAbled:     "no",
		NameOfEnterprise:   "Ravi Traders",
		MajorActivity:      "Manufacturing",
	}
}

// sequence yields the given numbers in order, repeating the last one.
func sequence(numbers ...string) NumberGenerator {
	var i int
	return func(time.Time) (string, error) {
		n := numbers[min(i, len(numbers)-1)]
		i++
		return n, nil
	}
}

type RegistrationServiceSuite struct {
	suite.Suite
	ctx     context.Context
	cfg     *config.Config
	metrics *metrics.Metrics
	store   *store.MemoryStore
	svc     *RegistrationService
}

func (s *RegistrationServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.cfg = testConfig()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.store = store.NewMemoryStore()
	s.svc = NewRegistrationService(s.store, s.cfg, s.metrics, nil)
}

func TestRegistrationServiceSuite(t *testing.T) {
	suite.Run(t, new(RegistrationServiceSuite))
}

func (s *RegistrationServiceSuite) TestCreateRoundTrip() {
	resp, err := s.svc.Create(s.ctx, validRequest())
	s.Require().NoError(err)
	s.Regexp(registrationNumberPattern, resp.RegistrationNumber)
	s.Equal(time.Now().Year(), resp.RegistrationDate.Year())
	s.NotZero(resp.ID)

	reg, err := s.svc.GetByRegistrationNumber(s.ctx, resp.RegistrationNumber)
	s.Require().NoError(err)
	s.Equal("123456789012", reg.Aadhaar)
	s.Equal("ABCDE1234F", reg.PAN)
	s.Equal("Ravi Traders", reg.NameOfEnterprise)
	s.False(reg.SpeciallyAbled)
	s.Equal(resp.ID, reg.ID)

	byAadhaar, err := s.svc.GetByAadhaar(s.ctx, "123456789012")
	s.Require().NoError(err)
	s.Equal(resp.RegistrationNumber, byAadhaar.RegistrationNumber)

	byID, err := s.svc.GetByID(s.ctx, resp.ID)
	s.Require().NoError(err)
	s.Equal(resp.RegistrationNumber, byID.RegistrationNumber)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.RegistrationsCreated))
}

func (s *RegistrationServiceSuite) TestCreateReportsFirstMissingField() {
	req := validRequest()
	req.Email = ""
	req.MajorActivity = ""

	_, err := s.svc.Create(s.ctx, req)
	var fe *FieldError
	s.Require().ErrorAs(err, &fe)
	s.Equal("email", fe.Field)
	s.Equal("Missing required field: email", fe.Message)
	s.True(fe.Missing)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.RegistrationRejections.WithLabelValues(metrics.ReasonMissingField)))
}

func (s *RegistrationServiceSuite) TestCreateRejectsInvalidFormats() {
	tests := []struct {
		field  string
		mutate func(*dto.RegistrationRequest)
	}{
		{"aadhaar", func(r *dto.RegistrationRequest) { r.Aadhaar = "12345" }},
		{"nameAsPerAadhaar", func(r *dto.RegistrationRequest) { r.NameAsPerAadhaar = "R" }},
		{"pan", func(r *dto.RegistrationRequest) { r.PAN = "INVALID" }},
		{"mobile", func(r *dto.RegistrationRequest) { r.Mobile = "1234567890" }},
		{"email", func(r *dto.RegistrationRequest) { r.Email = "not-an-email" }},
		{"speciallyAbled", func(r *dto.RegistrationRequest) { r.SpeciallyAbled = "maybe" }},
		{"nameOfEnterprise", func(r *dto.RegistrationRequest) { r.NameOfEnterprise = "AB" }},
		{"nameAsPerAadhaar", func(r *dto.RegistrationRequest) { r.NameAsPerAadhaar = strings.Repeat("a", 256) }},
		{"typeOfOrganisation", func(r *dto.RegistrationRequest) { r.TypeOfOrganisation = strings.Repeat("1", 101) }},
		{"email", func(r *dto.RegistrationRequest) { r.Email = strings.Repeat("a", 244) + "@example.com" }},
		{"socialCategory", func(r *dto.RegistrationRequest) { r.SocialCategory = strings.Repeat("G", 51) }},
		{"gender", func(r *dto.RegistrationRequest) { r.Gender = strings.Repeat("M", 21) }},
		{"majorActivity", func(r *dto.RegistrationRequest) { r.MajorActivity = strings.Repeat("S", 101) }},
	}

	for _, tt := range tests {
		s.Run(tt.field, func() {
			req := validRequest()
			tt.mutate(req)
			_, err := s.svc.Create(s.ctx, req)
			var fe *FieldError
			s.Require().ErrorAs(err, &fe)
			s.Equal(tt.field, fe.Field)
			s.Equal(fmt.Sprintf("Invalid %s format", tt.field), fe.Message)
			s.False(fe.Missing)
		})
	}
}

func (s *RegistrationServiceSuite) TestCreateRejectsDuplicates() {
	_, err := s.svc.Create(s.ctx, validRequest())
	s.Require().NoError(err)

	s.Run("same aadhaar regardless of other fields", func() {
		req := validRequest()
		req.PAN = "ZZZZZ9999Z"
		req.NameOfEnterprise = "Other Enterprise"
		_, err := s.svc.Create(s.ctx, req)
		s.ErrorIs(err, ErrAadhaarTaken)
	})

	s.Run("same pan", func() {
		req := validRequest()
		req.Aadhaar = "999999999999"
		_, err := s.svc.Create(s.ctx, req)
		s.ErrorIs(err, ErrPANTaken)
	})

	s.Run("lowercase pan matches stored pan", func() {
		req, err := dto.DecodeRegistrationRequest([]byte(`{
			"aadhaar":"888888888888","nameAsPerAadhaar":"Asha Rao","typeOfOrganisation":"1",
			"pan":"abcde1234f","mobile":"9876543210","email":"asha@example.com",
			"socialCategory":"OBC","gender":"F","speciallyAbled":"yes",
			"nameOfEnterprise":"Asha Foods","majorActivity":"Services"}`))
		s.Require().NoError(err)
		_, err = s.svc.Create(s.ctx, req)
		s.ErrorIs(err, ErrPANTaken)
	})

	regs, err := s.svc.ListRecent(s.ctx)
	s.Require().NoError(err)
	s.Len(regs, 1)
}

func (s *RegistrationServiceSuite) TestCreateNormalizesPAN() {
	req := validRequest()
	req.PAN = " abcde1234f "
	created, err := s.svc.Create(s.ctx, req)
	s.Require().NoError(err)

	stored, err := s.svc.GetByRegistrationNumber(s.ctx, created.RegistrationNumber)
	s.Require().NoError(err)
	s.Equal("ABCDE1234F", stored.PAN)

	again := validRequest()
	again.Aadhaar = "999999999999"
	_, err = s.svc.Create(s.ctx, again)
	s.ErrorIs(err, ErrPANTaken)

	regs, err := s.svc.ListRecent(s.ctx)
	s.Require().NoError(err)
	s.Len(regs, 1)
}

func (s *RegistrationServiceSuite) TestConcurrentCreatesWithSameAadhaar() {
	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		taken   int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := validRequest()
			req.PAN = fmt.Sprintf("ABCDE%04dF", i)
			_, err := s.svc.Create(s.ctx, req)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, ErrAadhaarTaken):
				taken++
			}
		}(i)
	}
	wg.Wait()

	s.Equal(1, success)
	s.Equal(n-1, taken)
}

func (s *RegistrationServiceSuite) TestNumberCollisionRetries() {
	s.svc.WithNumberGenerator(sequence("UDYAM-2026-000001"))
	_, err := s.svc.Create(s.ctx, validRequest())
	s.Require().NoError(err)

	s.svc.WithNumberGenerator(sequence("UDYAM-2026-000001", "UDYAM-2026-000001", "UDYAM-2026-000002"))
	req := validRequest()
	req.Aadhaar = "222222222222"
	req.PAN = "PQRST6789K"
	resp, err := s.svc.Create(s.ctx, req)
	s.Require().NoError(err)
	s.Equal("UDYAM-2026-000002", resp.RegistrationNumber)
	s.Equal(2.0, testutil.ToFloat64(s.metrics.NumberCollisions))
}

func (s *RegistrationServiceSuite) TestNumberExhaustion() {
	s.cfg.RegistrationNumberMaxAttempts = 3
	s.svc = NewRegistrationService(s.store, s.cfg, s.metrics, nil).
		WithNumberGenerator(sequence("UDYAM-2026-000001"))
	_, err := s.svc.Create(s.ctx, validRequest())
	s.Require().NoError(err)

	req := validRequest()
	req.Aadhaar = "222222222222"
	req.PAN = "PQRST6789K"
	_, err = s.svc.Create(s.ctx, req)
	s.ErrorIs(err, ErrNumberExhausted)
	s.Equal(3.0, testutil.ToFloat64(s.metrics.NumberCollisions))
}

func (s *RegistrationServiceSuite) TestGetMissing() {
	_, err := s.svc.GetByRegistrationNumber(s.ctx, "UDYAM-2026-000000")
	s.ErrorIs(err, ErrRegistrationNotFound)
	_, err = s.svc.GetByID(s.ctx, 42)
	s.ErrorIs(err, ErrRegistrationNotFound)
}

func (s *RegistrationServiceSuite) TestListRecentEmpty() {
	regs, err := s.svc.ListRecent(s.ctx)
	s.Require().NoError(err)
	s.NotNil(regs)
	s.Empty(regs)
}

func (s *RegistrationServiceSuite) TestVerificationGate() {
	verifier, err := NewVerifier("test-secret", time.Minute)
	s.Require().NoError(err)
	s.cfg.RequireAadhaarVerification = true
	svc := NewRegistrationService(s.store, s.cfg, s.metrics, verifier)

	s.Run("missing token", func() {
		_, err := svc.Create(s.ctx, validRequest())
		s.ErrorIs(err, ErrAadhaarNotVerified)
	})

	s.Run("token for another aadhaar", func() {
		token, _, err := verifier.Issue("999999999999")
		s.Require().NoError(err)
		req := validRequest()
		req.VerificationToken = token
		_, err = svc.Create(s.ctx, req)
		s.ErrorIs(err, ErrAadhaarNotVerified)
	})

	s.Run("valid token", func() {
		token, _, err := verifier.Issue("123456789012")
		s.Require().NoError(err)
		req := validRequest()
		req.VerificationToken = token
		_, err = svc.Create(s.ctx, req)
		s.NoError(err)
	})

	s.Equal(2.0, testutil.ToFloat64(s.metrics.RegistrationRejections.WithLabelValues(metrics.ReasonUnverified)))
}

func TestCreateWithMockStore(t *testing.T) {
	newService := func(t *testing.T) (*RegistrationService, *mocks.MockRegistrationStore) {
		ctrl := gomock.NewController(t)
		st := mocks.NewMockRegistrationStore(ctrl)
		svc := NewRegistrationService(st, testConfig(), metrics.New(prometheus.NewRegistry()), nil)
		return svc, st
	}

	t.Run("validation failure never touches the store", func(t *testing.T) {
		svc, _ := newService(t)
		req := validRequest()
		req.Email = ""
		_, err := svc.Create(context.Background(), req)
		var fe *FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "email", fe.Field)
	})

	t.Run("unique violation on insert maps to aadhaar taken", func(t *testing.T) {
		svc, st := newService(t)
		gomock.InOrder(
			st.EXPECT().FindByAadhaar(gomock.Any(), "123456789012").Return(nil, store.ErrNotFound),
			st.EXPECT().FindByPAN(gomock.Any(), "ABCDE1234F").Return(nil, store.ErrNotFound),
			st.EXPECT().FindByRegistrationNumber(gomock.Any(), gomock.Any()).Return(nil, store.ErrNotFound),
			st.EXPECT().Create(gomock.Any(), gomock.Any()).Return(&store.DuplicateError{Key: store.KeyAadhaar}),
		)
		_, err := svc.Create(context.Background(), validRequest())
		assert.ErrorIs(t, err, ErrAadhaarTaken)
	})

	t.Run("unnamed unique violation maps to already registered", func(t *testing.T) {
		svc, st := newService(t)
		st.EXPECT().FindByAadhaar(gomock.Any(), gomock.Any()).Return(nil, store.ErrNotFound)
		st.EXPECT().FindByPAN(gomock.Any(), gomock.Any()).Return(nil, store.ErrNotFound)
		st.EXPECT().FindByRegistrationNumber(gomock.Any(), gomock.Any()).Return(nil, store.ErrNotFound)
		st.EXPECT().Create(gomock.Any(), gomock.Any()).Return(&store.DuplicateError{})
		_, err := svc.Create(context.Background(), validRequest())
		assert.ErrorIs(t, err, ErrAlreadyRegistered)
	})

	t.Run("number race on insert retries", func(t *testing.T) {
		svc, st := newService(t)
		svc.WithNumberGenerator(sequence("UDYAM-2026-000001", "UDYAM-2026-000002"))
		st.EXPECT().FindByAadhaar(gomock.Any(), gomock.Any()).Return(nil, store.ErrNotFound)
		st.EXPECT().FindByPAN(gomock.Any(), gomock.Any()).Return(nil, store.ErrNotFound)
		st.EXPECT().FindByRegistrationNumber(gomock.Any(), gomock.Any()).Return(nil, store.ErrNotFound).Times(2)
		gomock.InOrder(
			st.EXPECT().Create(gomock.Any(), gomock.Any()).Return(&store.DuplicateError{Key: store.KeyRegistrationNumber}),
			st.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, reg *models.Registration) error {
				reg.ID = 7
				return nil
			}),
		)
		resp, err := svc.Create(context.Background(), validRequest())
		require.NoError(t, err)
		assert.Equal(t, "UDYAM-2026-000002", resp.RegistrationNumber)
		assert.Equal(t, uint(7), resp.ID)
	})

	t.Run("lookup failure is wrapped", func(t *testing.T) {
		svc, st := newService(t)
		boom := errors.New("connection reset")
		st.EXPECT().FindByAadhaar(gomock.Any(), gomock.Any()).Return(nil, boom)
		_, err := svc.Create(context.Background(), validRequest())
		assert.ErrorIs(t, err, boom)
	})
}
