package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/validation"
)

// requestValidator runs two passes over a RegistrationRequest: presence of
// every field (validate tags), then field formats (format tags). Each pass
// reports the first failing field in struct order.
type requestValidator struct {
	required *validator.Validate
	format   *validator.Validate
}

func newRequestValidator() *requestValidator {
	required := validator.New()
	required.RegisterTagNameFunc(jsonFieldName)

	format := validator.New()
	format.SetTagName("format")
	format.RegisterTagNameFunc(jsonFieldName)
	mustRegister(format, "aadhaar", validation.ValidateAadhaar)
	mustRegister(format, "person_name", validation.ValidateName)
	mustRegister(format, "pan", validation.ValidatePAN)
	mustRegister(format, "mobile", validation.ValidateMobile)
	mustRegister(format, "udyam_email", validation.ValidateEmail)
	mustRegister(format, "enterprise_name", validation.ValidateEnterpriseName)
	mustRegister(format, "yes_no", func(s string) bool { return dto.YesNo(s).Valid() })

	return &requestValidator{required: required, format: format}
}

func (v *requestValidator) Validate(req *dto.RegistrationRequest) error {
	if field := firstFailure(v.required.Struct(req)); field != "" {
		return missingField(field)
	}
	if field := firstFailure(v.format.Struct(req)); field != "" {
		return invalidField(field)
	}
	return nil
}

func firstFailure(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field()
	}
	return ""
}

func mustRegister(v *validator.Validate, tag string, fn func(string) bool) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return fn(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}
