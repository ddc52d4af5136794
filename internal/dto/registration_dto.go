package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/validation"
)

var ErrMalformedBody = errors.New("malformed request body")

// YesNo is the specially-abled selection. It accepts "yes"/"no" style
// strings as well as JSON booleans.
type YesNo string

func (y *YesNo) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		if b {
			*y = "yes"
		} else {
			*y = "no"
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*y = YesNo(strings.TrimSpace(s))
	return nil
}

func (y YesNo) Valid() bool {
	switch strings.ToLower(string(y)) {
	case "yes", "y", "true", "no", "n", "false":
		return true
	}
	return false
}

func (y YesNo) Bool() bool {
	switch strings.ToLower(string(y)) {
	case "yes", "y", "true":
		return true
	}
	return false
}

// RegistrationRequest is the combined payload of both wizard steps. Field
// order is the order in which missing fields are reported. The max rules
// match the registrations column sizes.
type RegistrationRequest struct {
	Aadhaar            string `json:"aadhaar" validate:"required" format:"aadhaar"`
	NameAsPerAadhaar   string `json:"nameAsPerAadhaar" validate:"required" format:"person_name,max=255"`
	TypeOfOrganisation string `json:"typeOfOrganisation" validate:"required" format:"max=100"`
	PAN                string `json:"pan" validate:"required" format:"pan"`
	Mobile             string `json:"mobile" validate:"required" format:"mobile"`
	Email              string `json:"email" validate:"required" format:"udyam_email,max=255"`
	SocialCategory     string `json:"socialCategory" validate:"required" format:"max=50"`
	Gender             string `json:"gender" validate:"required" format:"max=20"`
	SpeciallyAbled     YesNo  `json:"speciallyAbled" validate:"required" format:"yes_no"`
	NameOfEnterprise   string `json:"nameOfEnterprise" validate:"required" format:"enterprise_name"`
	MajorActivity      string `json:"majorActivity" validate:"required" format:"max=100"`

	// Step one extras the wizard sends along; not persisted.
	Disclaimer        *bool  `json:"disclaimer,omitempty"`
	OTP               string `json:"otp,omitempty"`
	VerificationToken string `json:"verificationToken,omitempty"`
}

// DecodeRegistrationRequest decodes a single JSON object, rejecting unknown
// keys, wrongly typed values and trailing data.
func DecodeRegistrationRequest(body []byte) (*RegistrationRequest, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()

	var req RegistrationRequest
	if err := dec.Decode(&req); err != nil {
		return nil, errors.Join(ErrMalformedBody, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, ErrMalformedBody
	}
	req.Normalize()
	return &req, nil
}

// Normalize trims every text field and upper-cases the PAN. It is safe to
// call more than once.
func (r *RegistrationRequest) Normalize() {
	r.Aadhaar = strings.TrimSpace(r.Aadhaar)
	r.NameAsPerAadhaar = strings.TrimSpace(r.NameAsPerAadhaar)
	r.TypeOfOrganisation = strings.TrimSpace(r.TypeOfOrganisation)
	r.PAN = validation.NormalizePAN(r.PAN)
	r.Mobile = strings.TrimSpace(r.Mobile)
	r.Email = strings.TrimSpace(r.Email)
	r.SocialCategory = strings.TrimSpace(r.SocialCategory)
	r.Gender = strings.TrimSpace(r.Gender)
	r.NameOfEnterprise = strings.TrimSpace(r.NameOfEnterprise)
	r.MajorActivity = strings.TrimSpace(r.MajorActivity)
}

type CreateRegistrationResponse struct {
	RegistrationNumber string    `json:"registrationNumber"`
	RegistrationDate   time.Time `json:"registrationDate"`
	ID                 uint      `json:"id"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
	OTPStore  string `json:"otp_store"`
}
