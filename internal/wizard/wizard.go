package wizard

import (
	"context"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/schema"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/validation"
)

const (
	StepIdentity = 1
	StepBusiness = 2
	StepDone     = 3
)

var (
	ErrNotOnBusinessStep = errors.New("registration can only be submitted from the business step")
	ErrAlreadySubmitted  = errors.New("registration already submitted")
)

// Confirmation is what the success screen shows.
type Confirmation struct {
	RegistrationNumber string
	RegistrationDate   time.Time
	ID                 uint
	NameOfEnterprise   string
}

type Wizard struct {
	Identity IdentityStep
	Business BusinessStep

	client       *Client
	form         *schema.Schema
	step         int
	confirmation *Confirmation
}

// New starts a wizard on the identity step. form may be nil, in which case
// option membership is not checked locally.
func New(client *Client, form *schema.Schema) *Wizard {
	return &Wizard{client: client, form: form, step: StepIdentity}
}

func (w *Wizard) Step() int {
	return w.step
}

// Next moves from the identity step to the business step. It returns the
// identity errors and stays put when there are any.
func (w *Wizard) Next() Errors {
	if w.step != StepIdentity {
		return nil
	}
	if errs := w.Identity.Validate(); len(errs) > 0 {
		return errs
	}
	w.step = StepBusiness
	return nil
}

// Back returns to the identity step, keeping everything entered so far.
func (w *Wizard) Back() {
	if w.step == StepBusiness {
		w.step = StepIdentity
	}
}

// Reset clears both steps for a new registration.
func (w *Wizard) Reset() {
	w.Identity = IdentityStep{}
	w.Business = BusinessStep{}
	w.confirmation = nil
	w.step = StepIdentity
}

// RequestOTP asks the API to issue a code for the identity step's Aadhaar.
func (w *Wizard) RequestOTP(ctx context.Context) (*dto.SendOTPResponse, error) {
	errs := Errors{}
	check(errs, validation.FieldAadhaar, w.Identity.Aadhaar)
	check(errs, validation.FieldNameAsPerAadhaar, w.Identity.NameAsPerAadhaar)
	if len(errs) > 0 {
		return nil, errs
	}
	return w.client.SendOTP(ctx, &dto.SendOTPRequest{
		Aadhaar:          w.Identity.Aadhaar,
		NameAsPerAadhaar: w.Identity.NameAsPerAadhaar,
	})
}

// VerifyOTP exchanges the entered code for a verification token that is
// sent along with the registration.
func (w *Wizard) VerifyOTP(ctx context.Context) error {
	errs := Errors{}
	check(errs, validation.FieldOTP, w.Identity.OTP)
	if len(errs) > 0 {
		return errs
	}
	resp, err := w.client.VerifyOTP(ctx, &dto.VerifyOTPRequest{
		Aadhaar: w.Identity.Aadhaar,
		OTP:     w.Identity.OTP,
	})
	if err != nil {
		return err
	}
	w.Identity.VerificationToken = resp.VerificationToken
	return nil
}

// Submit re-validates the business step and sends the merged payload. API
// rejections come back as *APIError, transport failures wrap ErrNetwork.
func (w *Wizard) Submit(ctx context.Context) (*Confirmation, error) {
	switch w.step {
	case StepDone:
		return nil, ErrAlreadySubmitted
	case StepBusiness:
	default:
		return nil, ErrNotOnBusinessStep
	}

	var step2 *schema.Step
	if w.form != nil {
		step2 = &w.form.Step2
	}
	if errs := w.Business.Validate(step2); len(errs) > 0 {
		return nil, errs
	}

	resp, err := w.client.CreateRegistration(ctx, Payload(&w.Identity, &w.Business))
	if err != nil {
		return nil, err
	}

	w.confirmation = &Confirmation{
		RegistrationNumber: resp.RegistrationNumber,
		RegistrationDate:   resp.RegistrationDate,
		ID:                 resp.ID,
		NameOfEnterprise:   w.Business.NameOfEnterprise,
	}
	w.step = StepDone
	return w.confirmation, nil
}

func (w *Wizard) Confirmation() *Confirmation {
	return w.confirmation
}
