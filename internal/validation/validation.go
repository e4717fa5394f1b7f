// Package validation implements the fixed field rules of the API
// contract. Every validator collects the full set of messages for its
// input instead of stopping at the first failure, because clients render
// all field errors at once.
package validation

import "regexp"

var (
	lettersSpaces = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	htmlTag       = regexp.MustCompile(`<[^>]*>`)
	emailShape    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	emailChars    = regexp.MustCompile(`^[a-zA-Z0-9._@+-]+$`)
	tenDigits     = regexp.MustCompile(`^\d{10}$`)
	lower         = regexp.MustCompile(`[a-z]`)
	upper         = regexp.MustCompile(`[A-Z]`)
	digit         = regexp.MustCompile(`[0-9]`)
	special       = regexp.MustCompile(`[@$&]`)
	doubleDot     = regexp.MustCompile(`\.\.`)
	whitespace    = regexp.MustCompile(`\s`)
)

// Name: 4-100 chars, letters and spaces only, no markup.
func Name(v string) []string {
	var errs []string
	if len(v) < 4 {
		errs = append(errs, "Name Must Be At Least 4 Characters Long")
	}
	if len(v) > 100 {
		errs = append(errs, "Name Must Be At Most 100 Characters Long")
	}
	if !lettersSpaces.MatchString(v) {
		errs = append(errs, "Name Must Contain Only Letters And Spaces")
	}
	if htmlTag.MatchString(v) {
		errs = append(errs, "HTML Tags Are Not Allowed In Name")
	}
	return errs
}

// Email: 6-100 chars, plausible shape, restricted character set, no
// spaces or double dots, no markup.
func Email(v string) []string {
	var errs []string
	if len(v) < 6 {
		errs = append(errs, "Email Must Be At Least 6 Characters Long")
	}
	if len(v) > 100 {
		errs = append(errs, "Email Must Be At Most 100 Characters Long")
	}
	if !emailShape.MatchString(v) {
		errs = append(errs, "Invalid Email Format")
	}
	if htmlTag.MatchString(v) {
		errs = append(errs, "HTML Tags Are Not Allowed In Email")
	}
	if !emailChars.MatchString(v) {
		errs = append(errs, "Email Contains Invalid Characters")
	}
	if doubleDot.MatchString(v) || whitespace.MatchString(v) {
		errs = append(errs, "Email Cannot Contain Spaces Or Double Dots")
	}
	return errs
}

// Password: 8-30 chars with at least one lowercase, uppercase, digit and
// special character from @, $, &.
func Password(v string) []string {
	var errs []string
	if len(v) < 8 {
		errs = append(errs, "Password Must Be At Least 8 Characters Long")
	}
	if len(v) > 30 {
		errs = append(errs, "Password Must Be At Most 30 Characters Long")
	}
	if !lower.MatchString(v) {
		errs = append(errs, "Password Must Contain At Least One Lowercase Letter")
	}
	if !upper.MatchString(v) {
		errs = append(errs, "Password Must Contain At Least One Uppercase Letter")
	}
	if !digit.MatchString(v) {
		errs = append(errs, "Password Must Contain At Least One Number")
	}
	if !special.MatchString(v) {
		errs = append(errs, "Password Must Contain At Least One Special Character (@, $, &)")
	}
	if htmlTag.MatchString(v) {
		errs = append(errs, "HTML Tags Are Not Allowed In Password")
	}
	return errs
}

// Phone: exactly ten digits.
func Phone(v string) []string {
	var errs []string
	if !tenDigits.MatchString(v) {
		errs = append(errs, "Phone Number Must Be Exactly 10 Digits Long And Contain Only Numbers")
	}
	if htmlTag.MatchString(v) {
		errs = append(errs, "HTML Tags Are Not Allowed In Phone Number")
	}
	return errs
}

// RoleType: 2-50 chars, letters and spaces only, no markup.
func RoleType(v string) []string {
	var errs []string
	if len(v) < 2 {
		errs = append(errs, "Role Name Must Be At Least 2 Characters Long")
	}
	if len(v) > 50 {
		errs = append(errs, "Role Name Must Be At Max 50 Characters Long")
	}
	if !lettersSpaces.MatchString(v) {
		errs = append(errs, "Role Name Must Contain Only Letters And Spaces")
	}
	if htmlTag.MatchString(v) {
		errs = append(errs, "HTML Tags Are Not Allowed")
	}
	return errs
}
