// Package wizard keeps the state of the two-step registration form and
// submits the merged payload to the API.
package wizard

import (
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/schema"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/validation"
)

const disclaimerMessage = "You must accept the declaration"

// Errors maps a field id to the message shown next to it.
type Errors map[string]string

func (e Errors) Error() string {
	for _, field := range fieldOrder {
		if msg, ok := e[field]; ok {
			return msg
		}
	}
	for _, msg := range e {
		return msg
	}
	return ""
}

var fieldOrder = []string{
	validation.FieldAadhaar,
	validation.FieldNameAsPerAadhaar,
	"disclaimer",
	validation.FieldOTP,
	validation.FieldTypeOfOrganisation,
	validation.FieldPAN,
	validation.FieldMobile,
	validation.FieldEmail,
	validation.FieldSocialCategory,
	validation.FieldGender,
	validation.FieldSpeciallyAbled,
	validation.FieldNameOfEnterprise,
	validation.FieldMajorActivity,
}

// IdentityStep is step one: Aadhaar, name and the declaration.
type IdentityStep struct {
	Aadhaar           string
	NameAsPerAadhaar  string
	Disclaimer        bool
	OTP               string
	VerificationToken string
}

func (s *IdentityStep) Validate() Errors {
	errs := Errors{}
	check(errs, validation.FieldAadhaar, s.Aadhaar)
	check(errs, validation.FieldNameAsPerAadhaar, s.NameAsPerAadhaar)
	if !s.Disclaimer {
		errs["disclaimer"] = disclaimerMessage
	}
	if s.OTP != "" {
		check(errs, validation.FieldOTP, s.OTP)
	}
	return errs
}

// BusinessStep is step two: organisation, PAN and contact details.
type BusinessStep struct {
	TypeOfOrganisation string
	PAN                string
	Mobile             string
	Email              string
	SocialCategory     string
	Gender             string
	SpeciallyAbled     string
	NameOfEnterprise   string
	MajorActivity      string
}

// SetPAN stores the PAN upper-cased, the way the input field shows it.
func (s *BusinessStep) SetPAN(pan string) {
	s.PAN = validation.NormalizePAN(pan)
}

// Validate checks formats and, when form is given, that select and radio
// values are among the offered options.
func (s *BusinessStep) Validate(form *schema.Step) Errors {
	errs := Errors{}
	for _, f := range []struct{ id, value string }{
		{validation.FieldTypeOfOrganisation, s.TypeOfOrganisation},
		{validation.FieldPAN, s.PAN},
		{validation.FieldMobile, s.Mobile},
		{validation.FieldEmail, s.Email},
		{validation.FieldSocialCategory, s.SocialCategory},
		{validation.FieldGender, s.Gender},
		{validation.FieldSpeciallyAbled, s.SpeciallyAbled},
		{validation.FieldNameOfEnterprise, s.NameOfEnterprise},
		{validation.FieldMajorActivity, s.MajorActivity},
	} {
		if check(errs, f.id, f.value) || form == nil {
			continue
		}
		if field, ok := form.Field(f.id); ok && !field.HasOption(f.value) {
			errs[f.id] = "Please select a valid " + field.Name
		}
	}
	return errs
}

// check records the field's message and reports whether there was one.
func check(errs Errors, field, value string) bool {
	if msg := validation.ValidationError(field, value); msg != "" {
		errs[field] = msg
		return true
	}
	return false
}

// Payload merges both steps into the request the API expects.
func Payload(identity *IdentityStep, business *BusinessStep) *dto.RegistrationRequest {
	disclaimer := identity.Disclaimer
	return &dto.RegistrationRequest{
		Aadhaar:            identity.Aadhaar,
		NameAsPerAadhaar:   identity.NameAsPerAadhaar,
		TypeOfOrganisation: business.TypeOfOrganisation,
		PAN:                business.PAN,
		Mobile:             business.Mobile,
		Email:              business.Email,
		SocialCategory:     business.SocialCategory,
		Gender:             business.Gender,
		SpeciallyAbled:     dto.YesNo(business.SpeciallyAbled),
		NameOfEnterprise:   business.NameOfEnterprise,
		MajorActivity:      business.MajorActivity,
		Disclaimer:         &disclaimer,
		OTP:                identity.OTP,
		VerificationToken:  identity.VerificationToken,
	}
}
