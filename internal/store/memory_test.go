package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/models"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemoryStore()
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func newRegistration(n int) *models.Registration {
	return &models.Registration{
		Aadhaar:            fmt.Sprintf("%012d", n),
		NameAsPerAadhaar:   "Ravi Kumar",
		TypeOfOrganisation: "1",
		PAN:                fmt.Sprintf("ABCDE%04dF", n),
		Mobile:             "9876543210",
		Email:              "ravi@example.com",
		SocialCategory:     "General",
		Gender:             "M",
		NameOfEnterprise:   "Ravi Traders",
		MajorActivity:      "Manufacturing",
		RegistrationNumber: fmt.Sprintf("UDYAM-2026-%06d", n),
	}
}

func (s *MemoryStoreSuite) TestCreateAndLookups() {
	reg := newRegistration(1)
	s.Require().NoError(s.store.Create(s.ctx, reg))
	s.Equal(uint(1), reg.ID)
	s.False(reg.CreatedAt.IsZero())
	s.False(reg.RegistrationDate.IsZero())

	s.Run("by id", func() {
		found, err := s.store.FindByID(s.ctx, reg.ID)
		s.Require().NoError(err)
		s.Equal(reg.Aadhaar, found.Aadhaar)
	})

	s.Run("by aadhaar", func() {
		found, err := s.store.FindByAadhaar(s.ctx, reg.Aadhaar)
		s.Require().NoError(err)
		s.Equal(reg.ID, found.ID)
	})

	s.Run("by pan", func() {
		found, err := s.store.FindByPAN(s.ctx, reg.PAN)
		s.Require().NoError(err)
		s.Equal(reg.ID, found.ID)
	})

	s.Run("by registration number", func() {
		found, err := s.store.FindByRegistrationNumber(s.ctx, reg.RegistrationNumber)
		s.Require().NoError(err)
		s.Equal(reg.ID, found.ID)
	})

	s.Run("unknown values return ErrNotFound", func() {
		_, err := s.store.FindByID(s.ctx, 42)
		s.ErrorIs(err, ErrNotFound)
		_, err = s.store.FindByAadhaar(s.ctx, "000000000000")
		s.ErrorIs(err, ErrNotFound)
		_, err = s.store.FindByRegistrationNumber(s.ctx, "UDYAM-2026-999999")
		s.ErrorIs(err, ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestReturnedRowsAreCopies() {
	reg := newRegistration(1)
	s.Require().NoError(s.store.Create(s.ctx, reg))

	found, err := s.store.FindByID(s.ctx, reg.ID)
	s.Require().NoError(err)
	found.NameOfEnterprise = "changed"

	again, err := s.store.FindByID(s.ctx, reg.ID)
	s.Require().NoError(err)
	s.Equal("Ravi Traders", again.NameOfEnterprise)
}

func (s *MemoryStoreSuite) TestUniqueKeys() {
	s.Require().NoError(s.store.Create(s.ctx, newRegistration(1)))

	s.Run("aadhaar", func() {
		dup := newRegistration(2)
		dup.Aadhaar = newRegistration(1).Aadhaar
		err := s.store.Create(s.ctx, dup)
		s.ErrorIs(err, ErrDuplicate)
		s.Equal(KeyAadhaar, DuplicateKey(err))
	})

	s.Run("pan", func() {
		dup := newRegistration(3)
		dup.PAN = newRegistration(1).PAN
		err := s.store.Create(s.ctx, dup)
		s.Equal(KeyPAN, DuplicateKey(err))
	})

	s.Run("registration number", func() {
		dup := newRegistration(4)
		dup.RegistrationNumber = newRegistration(1).RegistrationNumber
		err := s.store.Create(s.ctx, dup)
		s.Equal(KeyRegistrationNumber, DuplicateKey(err))
	})

	s.Run("rejected rows are not persisted", func() {
		list, err := s.store.ListRecent(s.ctx, 0)
		s.Require().NoError(err)
		s.Len(list, 1)
	})
}

func (s *MemoryStoreSuite) TestListRecent() {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for i := 1; i <= 5; i++ {
		s.Require().NoError(s.store.Create(s.ctx, newRegistration(i)))
	}

	list, err := s.store.ListRecent(s.ctx, 3)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal(uint(5), list[0].ID)
	s.Equal(uint(4), list[1].ID)
	s.Equal(uint(3), list[2].ID)
}

func (s *MemoryStoreSuite) TestConcurrentDuplicateAadhaar() {
	const goroutines = 20
	var wg sync.WaitGroup
	var created, conflicts atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reg := newRegistration(100 + i)
			reg.Aadhaar = "111122223333"
			err := s.store.Create(s.ctx, reg)
			switch {
			case err == nil:
				created.Add(1)
			case DuplicateKey(err) == KeyAadhaar:
				conflicts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), created.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}
