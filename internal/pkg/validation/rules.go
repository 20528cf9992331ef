package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation rule patterns
var (
	// NIMPattern accepts any run of digits. The 7-digit campus format is advisory.
	NIMPattern = `^\d+$`

	// AdvisoryNIMPattern is the campus NIM format shown as a hint in forms
	AdvisoryNIMPattern = `^\d{7}$`

	// PasswordMinLength is the shortest admin password accepted
	PasswordMinLength = 4

	NameMinLength = 1
	NameMaxLength = 255
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	NIM         *regexp.Regexp
	AdvisoryNIM *regexp.Regexp
}{
	NIM:         regexp.MustCompile(NIMPattern),
	AdvisoryNIM: regexp.MustCompile(AdvisoryNIMPattern),
}

// StringValidation checks a single string value
type StringValidation struct {
	Value    string
	MinLen   int
	MaxLen   int
	Required bool
	Pattern  *regexp.Regexp
}

// NewStringValidation creates a required string validation
func NewStringValidation(value string) *StringValidation {
	return &StringValidation{
		Value:    value,
		Required: true,
	}
}

// WithMinLength sets minimum length in characters
func (v *StringValidation) WithMinLength(min int) *StringValidation {
	v.MinLen = min
	return v
}

// WithMaxLength sets maximum length in characters
func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

// WithPattern sets regex pattern
func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

// WithRequired sets if field is required
func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Validate performs validation
func (v *StringValidation) Validate() bool {
	if v.Value == "" {
		return !v.Required
	}

	length := utf8.RuneCountInString(v.Value)
	if v.MinLen > 0 && length < v.MinLen {
		return false
	}
	if v.MaxLen > 0 && length > v.MaxLen {
		return false
	}
	if v.Pattern != nil && !v.Pattern.MatchString(v.Value) {
		return false
	}
	return true
}

// ValidNIM reports whether nim is a non-empty run of digits.
func ValidNIM(nim string) bool {
	return NewStringValidation(nim).WithMaxLength(32).WithPattern(CompiledPatterns.NIM).Validate()
}

// ValidName reports whether a person name has an acceptable length.
func ValidName(name string) bool {
	return NewStringValidation(name).WithMinLength(NameMinLength).WithMaxLength(NameMaxLength).Validate()
}

// ValidPassword reports whether a new admin password is long enough, ignoring
// surrounding whitespace.
func ValidPassword(password string) bool {
	return NewStringValidation(strings.TrimSpace(password)).WithMinLength(PasswordMinLength).Validate()
}
