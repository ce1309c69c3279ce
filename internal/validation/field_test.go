package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/umalmyha/intake/internal/model"
)

func newTestFieldValidator(t *testing.T) *FieldValidator {
	t.Helper()
	v, trans, err := Build()
	require.NoError(t, err, "failed to build validator")
	return NewFieldValidator(v, trans)
}

func validCustomer() *model.Customer {
	return &model.Customer{
		LastName:  "Doe",
		FirstName: "John",
		Email:     "john@x.com",
		City:      "NY",
		Country:   "Canada",
	}
}

func violatedFields(violations []Violation) []string {
	fields := make([]string, 0, len(violations))
	for _, v := range violations {
		fields = append(fields, v.Field)
	}
	return fields
}

func TestFieldValidatorValidRecords(t *testing.T) {
	fv := newTestFieldValidator(t)

	for _, country := range model.Countries {
		c := validCustomer()
		c.Country = country

		ok, violations := fv.Validate(c)
		require.True(t, ok, "customer from %s must be valid", country)
		require.Empty(t, violations, "no violations expected for %s", country)
	}

	t.Log("image path is optional")
	{
		path := "uploads/customer_20240101_120000_0123456789abcdef.jpg"
		c := validCustomer()
		c.ImagePath = &path

		ok, violations := fv.Validate(c)
		require.True(t, ok, "customer with photo must be valid")
		require.Empty(t, violations, "no violations expected")
	}
}

func TestFieldValidatorAccumulatesViolations(t *testing.T) {
	fv := newTestFieldValidator(t)

	t.Log("missing lastname, email and country yields exactly three violations")
	{
		c := validCustomer()
		c.LastName = ""
		c.Email = ""
		c.Country = ""

		ok, violations := fv.Validate(c)
		require.False(t, ok, "invalid customer passed validation")
		require.Equal(t, []string{"lastname", "email", "country"}, violatedFields(violations))
		require.Equal(t, "Last name is a required field", violations[0].Message)
		require.Equal(t, "Email is a required field", violations[1].Message)
		require.Equal(t, "Country is a required field", violations[2].Message)
	}

	t.Log("every field invalid is reported in declaration order")
	{
		ok, violations := fv.Validate(&model.Customer{})
		require.False(t, ok, "empty customer passed validation")
		require.Equal(t, []string{"lastname", "firstname", "email", "city", "country"}, violatedFields(violations))
	}

	t.Log("nil record is treated as empty one")
	{
		ok, violations := fv.Validate(nil)
		require.False(t, ok, "nil customer passed validation")
		require.Len(t, violations, 5, "all required fields must be reported")
	}
}

func TestFieldValidatorRules(t *testing.T) {
	fv := newTestFieldValidator(t)

	tooLong := strings.Repeat("a", 256)
	longest := strings.Repeat("ж", 255)

	tests := []struct {
		name   string
		modify func(c *model.Customer)
		field  string
	}{
		{name: "whitespace-only lastname", modify: func(c *model.Customer) { c.LastName = "   \t" }, field: "lastname"},
		{name: "whitespace-only firstname", modify: func(c *model.Customer) { c.FirstName = " " }, field: "firstname"},
		{name: "whitespace-only city", modify: func(c *model.Customer) { c.City = "\n" }, field: "city"},
		{name: "lastname too long", modify: func(c *model.Customer) { c.LastName = tooLong }, field: "lastname"},
		{name: "firstname too long", modify: func(c *model.Customer) { c.FirstName = tooLong }, field: "firstname"},
		{name: "city too long", modify: func(c *model.Customer) { c.City = tooLong }, field: "city"},
		{name: "malformed email", modify: func(c *model.Customer) { c.Email = "john.x.com" }, field: "email"},
		{name: "email too long", modify: func(c *model.Customer) { c.Email = strings.Repeat("a", 250) + "@x.com" }, field: "email"},
		{name: "country in wrong case", modify: func(c *model.Customer) { c.Country = "canada" }, field: "country"},
		{name: "unknown country", modify: func(c *model.Customer) { c.Country = "Spain" }, field: "country"},
		{name: "country with padding", modify: func(c *model.Customer) { c.Country = " Canada" }, field: "country"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := validCustomer()
			tc.modify(c)

			ok, violations := fv.Validate(c)
			require.False(t, ok, "rule must be violated")
			require.Equal(t, []string{tc.field}, violatedFields(violations))
			require.NotEmpty(t, violations[0].Message, "violation must have message")
		})
	}

	t.Log("length is counted in characters, not bytes")
	{
		c := validCustomer()
		c.LastName = longest
		c.City = longest

		ok, violations := fv.Validate(c)
		require.True(t, ok, "255 characters must be accepted")
		require.Empty(t, violations)
	}

	t.Log("unknown country message lists accepted ones")
	{
		c := validCustomer()
		c.Country = "Spain"

		_, violations := fv.Validate(c)
		require.Contains(t, violations[0].Message, "United Kingdom")
	}
}

func TestFieldValidatorIsIdempotent(t *testing.T) {
	fv := newTestFieldValidator(t)

	c := validCustomer()
	c.FirstName = ""
	c.Country = "Mars"
	snapshot := *c

	ok1, violations1 := fv.Validate(c)
	ok2, violations2 := fv.Validate(c)

	require.Equal(t, ok1, ok2, "validation result must be stable")
	require.Equal(t, violations1, violations2, "violations must be stable")
	require.Equal(t, snapshot, *c, "validation must not modify the record")
}

func TestPayloadError(t *testing.T) {
	pldErr := NewPayloadError(
		Violation{Field: "email", Message: "Email is a required field"},
	)
	pldErr.Violation(Violation{Field: "image", Message: "file is too large"})

	require.Len(t, pldErr.Violations(), 2)
	require.Equal(t, "Email is a required field\nfile is too large\n", pldErr.Error())

	b, err := pldErr.MarshalJSON()
	require.NoError(t, err, "failed to marshal payload error")
	require.JSONEq(t, `{"errors":[{"field":"email","message":"Email is a required field"},{"field":"image","message":"file is too large"}]}`, string(b))
}
