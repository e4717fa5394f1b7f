package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPasswordCollectsAllFailures(t *testing.T) {
	// A short, lowercase-only password violates several rules at once;
	// the validator must report every one of them, not just the first.
	errs := Password("abc")
	assert.Contains(t, errs, "Password Must Be At Least 8 Characters Long")
	assert.Contains(t, errs, "Password Must Contain At Least One Uppercase Letter")
	assert.Contains(t, errs, "Password Must Contain At Least One Number")
	assert.Contains(t, errs, "Password Must Contain At Least One Special Character (@, $, &)")
	assert.Len(t, errs, 4)
}

func TestPasswordAcceptsPolicyCompliant(t *testing.T) {
	assert.Empty(t, Password("Secret1@"))
}

func TestName(t *testing.T) {
	assert.Empty(t, Name("John Doe"))
	assert.Contains(t, Name("Jo"), "Name Must Be At Least 4 Characters Long")
	assert.Contains(t, Name("John3000"), "Name Must Contain Only Letters And Spaces")
	assert.Contains(t, Name("<b>John Doe</b>"), "HTML Tags Are Not Allowed In Name")
}

func TestEmail(t *testing.T) {
	assert.Empty(t, Email("a@bc.com"))
	assert.Contains(t, Email("a@b"), "Invalid Email Format")
	assert.Contains(t, Email("a b@c.com"), "Email Cannot Contain Spaces Or Double Dots")
	assert.Contains(t, Email("a..b@c.com"), "Email Cannot Contain Spaces Or Double Dots")
	assert.Contains(t, Email("a#b@c.com"), "Email Contains Invalid Characters")
}

func TestPhone(t *testing.T) {
	assert.Empty(t, Phone("0123456789"))
	assert.NotEmpty(t, Phone("12345"))
	assert.NotEmpty(t, Phone("123456789a"))
}

func TestRoleType(t *testing.T) {
	assert.Empty(t, RoleType("Account Manager"))
	assert.Contains(t, RoleType("A"), "Role Name Must Be At Least 2 Characters Long")
	assert.Contains(t, RoleType("Admin2"), "Role Name Must Contain Only Letters And Spaces")
}
