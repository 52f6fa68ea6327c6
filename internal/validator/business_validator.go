package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
)

// ValidationError represents a single field validation failure
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Validator wraps go-playground/validator with the service's custom rules
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with custom rules registered
func New() *Validator {
	validate := validator.New()

	// Report json field names instead of Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	v := &Validator{validate: validate}
	v.registerRules()

	return v
}

// Validate validates a struct and returns nil or ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ToValidationErrors converts validator output into ValidationErrors
func ToValidationErrors(err error) ValidationErrors {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return ValidationErrors{{Field: "request", Message: err.Error(), Rule: "invalid"}}
	}

	out := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: errorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

func (v *Validator) registerRules() {
	v.validate.RegisterValidation("screener_type", func(fl validator.FieldLevel) bool {
		return models.ScreenerType(fl.Field().String()).Valid()
	})

	v.validate.RegisterValidation("alert_type", func(fl validator.FieldLevel) bool {
		switch models.AlertType(fl.Field().String()) {
		case models.AlertEmergency, models.AlertUrgent, models.AlertSupport:
			return true
		}
		return false
	})

	v.validate.RegisterValidation("risk_answer", func(fl validator.FieldLevel) bool {
		switch models.RiskAnswer(strings.ToLower(fl.Field().String())) {
		case models.RiskAnswerYes, models.RiskAnswerSometimes, models.RiskAnswerUnsure, models.RiskAnswerNo:
			return true
		}
		return false
	})
}

func errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "screener_type":
		return "must be one of phq9, gad7"
	case "alert_type":
		return "must be one of emergency, urgent, support"
	case "risk_answer":
		return "must be one of yes, sometimes, unsure, no"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
