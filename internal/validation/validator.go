package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/labstack/echo/v4"
	"github.com/umalmyha/intake/internal/model"
)

// Violation describes single failed rule for a field
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// PayloadError contains all violations found in payload
type PayloadError struct {
	violations []Violation
}

// NewPayloadError builds PayloadError from violations
func NewPayloadError(violations ...Violation) *PayloadError {
	pldErr := &PayloadError{violations: make([]Violation, 0, len(violations))}
	for _, v := range violations {
		pldErr.Violation(v)
	}
	return pldErr
}

func (e *PayloadError) Error() string {
	buff := bytes.NewBufferString("")

	for _, err := range e.violations {
		buff.WriteString(err.Message)
		buff.WriteString("\n")
	}

	return buff.String()
}

// Violation appends violation
func (e *PayloadError) Violation(v Violation) {
	e.violations = append(e.violations, v)
}

// Violations returns violations in the order they were found
func (e *PayloadError) Violations() []Violation {
	return e.violations
}

func (e *PayloadError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Errors []Violation `json:"errors"`
	}{
		Errors: e.violations,
	})
}

// Build creates validator with intake rules and english translator for its messages
func Build() (*validator.Validate, ut.Translator, error) {
	enLocale := en.New()
	unvTranslator := ut.New(enLocale, enLocale)
	trans, ok := unvTranslator.GetTranslator("en")
	if !ok {
		return nil, nil, errors.New("en translations are missing")
	}

	v := validator.New()
	v.RegisterTagNameFunc(labelTagName)

	if err := entranslations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, nil, err
	}

	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		return nil, nil, err
	}

	if err := v.RegisterValidation("country", func(fl validator.FieldLevel) bool {
		return model.IsCountry(fl.Field().String())
	}); err != nil {
		return nil, nil, err
	}

	if err := registerTranslation(v, trans, "notblank", "{0} is a required field"); err != nil {
		return nil, nil, err
	}

	countryMsg := "{0} must be one of: " + strings.Join(model.Countries, ", ")
	if err := registerTranslation(v, trans, "country", countryMsg); err != nil {
		return nil, nil, err
	}

	return v, trans, nil
}

func registerTranslation(v *validator.Validate, trans ut.Translator, tag, text string) error {
	return v.RegisterTranslation(tag, trans, func(t ut.Translator) error {
		return t.Add(tag, text, true)
	}, func(t ut.Translator, fe validator.FieldError) string {
		msg, err := t.T(tag, fe.Field())
		if err != nil {
			return fe.Error()
		}
		return msg
	})
}

// labelTagName makes validator report human-readable field name, label tag falls back to json name
func labelTagName(fld reflect.StructField) string {
	if label := fld.Tag.Get("label"); label != "" {
		return label
	}

	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// EchoValidator adapts validator to echo.Validator
type EchoValidator struct {
	validator  *validator.Validate
	translator ut.Translator
}

// Echo builds EchoValidator
func Echo(validator *validator.Validate, translator ut.Translator) *EchoValidator {
	return &EchoValidator{
		validator:  validator,
		translator: translator,
	}
}

func (v *EchoValidator) Validate(i any) error {
	err := v.validator.Struct(i)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return v.payloadError(ve)
	}

	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func (v *EchoValidator) payloadError(ve validator.ValidationErrors) error {
	pldErr := NewPayloadError()
	for _, e := range ve {
		pldErr.Violation(Violation{
			Field:   e.Field(),
			Message: e.Translate(v.translator),
		})
	}
	return pldErr
}
