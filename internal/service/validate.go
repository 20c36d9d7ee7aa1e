package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/htl-registration/appointment-intake/internal/model"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON names
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("department", func(fl validator.FieldLevel) bool {
		return model.Department(fl.Field().String()).Valid()
	})
}

// Normalize trims every field and lower-cases the ones compared by value.
func Normalize(req model.RegisterRequest) model.RegisterRequest {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Gender = strings.ToLower(strings.TrimSpace(req.Gender))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	req.Residence = strings.TrimSpace(req.Residence)
	req.CurrentSchool = strings.TrimSpace(req.CurrentSchool)
	req.CurrentClass = strings.TrimSpace(req.CurrentClass)
	req.Department = strings.ToLower(strings.TrimSpace(req.Department))
	req.Appointment = strings.TrimSpace(req.Appointment)
	return req
}

// Validate checks every applicant field and reports all failures at once.
// It returns nil when req is valid.
func Validate(req model.RegisterRequest) ValidationErrors {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{"request": err.Error()}
	}

	out := make(ValidationErrors, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "department":
		return "must be a known department"
	default:
		return "is invalid"
	}
}
