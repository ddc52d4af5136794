package services

import (
	"errors"
	"fmt"
)

var (
	ErrAadhaarTaken         = errors.New("aadhaar already registered")
	ErrPANTaken             = errors.New("pan already registered")
	ErrAlreadyRegistered    = errors.New("aadhaar or pan already registered")
	ErrNumberExhausted      = errors.New("could not allocate registration number")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrAadhaarNotVerified   = errors.New("aadhaar not verified")
	ErrInvalidOTP           = errors.New("invalid otp")
	ErrOTPExpired           = errors.New("otp expired or not requested")
)

// FieldError is an input error tied to one payload field. Its message is
// safe to return to the caller.
type FieldError struct {
	Field   string
	Message string
	Missing bool
}

func (e *FieldError) Error() string {
	return e.Message
}

func missingField(field string) *FieldError {
	return &FieldError{Field: field, Message: "Missing required field: " + field, Missing: true}
}

func invalidField(field string) *FieldError {
	return &FieldError{Field: field, Message: fmt.Sprintf("Invalid %s format", field)}
}
