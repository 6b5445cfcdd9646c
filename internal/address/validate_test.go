package address

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	assert.Empty(t, Validate(home))

	a := home
	a.Line2 = "Floor 12"
	a.Region = "Khlong Toei"
	assert.Empty(t, Validate(a))

	missing := Validate(Address{})
	for _, f := range []string{"first_name", "last_name", "phone", "country", "city", "postal_code", "address_line_1"} {
		assert.Equal(t, "is required", missing[f], f)
	}
	assert.NotContains(t, missing, "address_line_2")
	assert.NotContains(t, missing, "region")
}

func TestValidateAs_PrefixAndMessages(t *testing.T) {
	a := home
	a.Country = "tha"
	a.PostalCode = strings.Repeat("9", 21)
	a.Phone = "123"

	errs := ValidateAs("shipping_address", a)
	assert.Equal(t, "must be a two-letter country code", errs["shipping_address.country"])
	assert.Equal(t, "must be at most 20 characters", errs["shipping_address.postal_code"])
	assert.Equal(t, "must be at least 6 characters", errs["shipping_address.phone"])
	assert.Len(t, errs, 3)
}
