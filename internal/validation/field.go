package validation

import (
	"errors"
	"reflect"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/umalmyha/intake/internal/model"
)

// intakeFields order defines order violations are reported in
type intakeFields struct {
	LastName  string  `form:"lastname" label:"Last name" validate:"notblank,max=255"`
	FirstName string  `form:"firstname" label:"First name" validate:"notblank,max=255"`
	Email     string  `form:"email" label:"Email" validate:"notblank,email,max=255"`
	City      string  `form:"city" label:"City" validate:"notblank,max=255"`
	Country   string  `form:"country" label:"Country" validate:"notblank,country"`
	ImagePath *string `form:"image_path" label:"Image path" validate:"omitempty,max=255"`
}

// FieldValidator checks customer intake fields against business rules
type FieldValidator struct {
	validator  *validator.Validate
	translator ut.Translator
	formKeys   map[string]string
}

// NewFieldValidator builds FieldValidator, validator must be created with Build
func NewFieldValidator(v *validator.Validate, trans ut.Translator) *FieldValidator {
	keys := make(map[string]string)
	t := reflect.TypeOf(intakeFields{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		keys[f.Name] = f.Tag.Get("form")
	}

	return &FieldValidator{
		validator:  v,
		translator: trans,
		formKeys:   keys,
	}
}

// Validate evaluates every rule and returns all violations, at most one per field.
// It has no side effects so it is safe to call repeatedly.
func (v *FieldValidator) Validate(c *model.Customer) (bool, []Violation) {
	var f intakeFields
	if c != nil {
		f = intakeFields{
			LastName:  c.LastName,
			FirstName: c.FirstName,
			Email:     c.Email,
			City:      c.City,
			Country:   c.Country,
			ImagePath: c.ImagePath,
		}
	}

	violations := make([]Violation, 0)

	err := v.validator.Struct(&f)
	if err == nil {
		return true, violations
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return false, append(violations, Violation{Message: err.Error()})
	}

	for _, e := range ve {
		violations = append(violations, Violation{
			Field:   v.formKeys[e.StructField()],
			Message: e.Translate(v.translator),
		})
	}
	return false, violations
}
