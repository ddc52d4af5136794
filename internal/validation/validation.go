// Package validation holds the format rules shared by the registration
// endpoint, the OTP endpoints and the wizard steps.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Field identifiers as they appear in request payloads.
const (
	FieldAadhaar            = "aadhaar"
	FieldNameAsPerAadhaar   = "nameAsPerAadhaar"
	FieldTypeOfOrganisation = "typeOfOrganisation"
	FieldPAN                = "pan"
	FieldMobile             = "mobile"
	FieldEmail              = "email"
	FieldSocialCategory     = "socialCategory"
	FieldGender             = "gender"
	FieldSpeciallyAbled     = "speciallyAbled"
	FieldNameOfEnterprise   = "nameOfEnterprise"
	FieldMajorActivity      = "majorActivity"
	FieldOTP                = "otp"
)

var (
	aadhaarPattern = regexp.MustCompile(`^\d{12}$`)
	panPattern     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	mobilePattern  = regexp.MustCompile(`^[6-9]\d{9}$`)
	emailPattern   = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	namePattern    = regexp.MustCompile(`^[a-zA-Z\s.]+$`)
	otpPattern     = regexp.MustCompile(`^\d{6}$`)
)

const (
	minNameLength       = 2
	minEnterpriseLength = 3
	maxEnterpriseLength = 100
)

func ValidateAadhaar(aadhaar string) bool {
	return aadhaarPattern.MatchString(aadhaar)
}

// ValidatePAN upper-cases the input before matching, so "abcde1234f" passes.
func ValidatePAN(pan string) bool {
	return panPattern.MatchString(NormalizePAN(pan))
}

func NormalizePAN(pan string) string {
	return strings.ToUpper(strings.TrimSpace(pan))
}

func ValidateMobile(mobile string) bool {
	return mobilePattern.MatchString(mobile)
}

func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func ValidateName(name string) bool {
	return namePattern.MatchString(name) && len(name) >= minNameLength
}

func ValidateOTP(otp string) bool {
	return otpPattern.MatchString(otp)
}

// ValidateEnterpriseName counts characters, not bytes.
func ValidateEnterpriseName(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= minEnterpriseLength && n <= maxEnterpriseLength
}

// ValidationError returns "" when value is acceptable for field, otherwise
// a message suitable for showing next to the input.
func ValidationError(field, value string) string {
	switch field {
	case FieldAadhaar:
		if value == "" {
			return "Aadhaar number is required"
		}
		if !ValidateAadhaar(value) {
			return "Aadhaar number must be exactly 12 digits"
		}
	case FieldPAN:
		if value == "" {
			return "PAN is required"
		}
		if !ValidatePAN(value) {
			return "PAN format: 5 letters, 4 numbers, 1 letter (e.g., ABCDE1234F)"
		}
	case FieldMobile:
		if value == "" {
			return "Mobile number is required"
		}
		if !ValidateMobile(value) {
			return "Mobile number must be 10 digits starting with 6-9"
		}
	case FieldEmail:
		if value == "" {
			return "Email is required"
		}
		if !ValidateEmail(value) {
			return "Please enter a valid email address"
		}
	case FieldNameAsPerAadhaar:
		if value == "" {
			return "Name is required"
		}
		if !ValidateName(value) {
			return "Name should contain only letters, spaces and dots"
		}
	case FieldOTP:
		if value == "" {
			return "OTP is required"
		}
		if !ValidateOTP(value) {
			return "OTP must be exactly 6 digits"
		}
	case FieldNameOfEnterprise:
		if value == "" {
			return "Enterprise name is required"
		}
		if !ValidateEnterpriseName(value) {
			return "Enterprise name should be between 3 to 100 characters"
		}
	default:
		if value == "" {
			return field + " is required"
		}
	}
	return ""
}

// Check reports whether value satisfies the format rule registered for
// field. Fields without a format rule always pass.
func Check(field, value string) bool {
	switch field {
	case FieldAadhaar:
		return ValidateAadhaar(value)
	case FieldNameAsPerAadhaar:
		return ValidateName(value)
	case FieldPAN:
		return ValidatePAN(value)
	case FieldMobile:
		return ValidateMobile(value)
	case FieldEmail:
		return ValidateEmail(value)
	case FieldOTP:
		return ValidateOTP(value)
	case FieldNameOfEnterprise:
		return ValidateEnterpriseName(value)
	}
	return true
}
