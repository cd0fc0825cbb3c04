package services

import (
	"fmt"
	"strings"
	"unicode"
)

// PasswordValidator is the external strength policy consulted during
// registration. Implementations return every rule violation at once so
// the flow can aggregate them under the password field.
type PasswordValidator interface {
	Validate(password string, user UserAttributes) []string
}

// UserAttributes carries the identity fields a policy may compare the
// candidate password against.
type UserAttributes struct {
	Username string
	Email    string
}

const defaultMinPasswordLength = 8

// A short list of passwords too common to allow. Checked after
// lowercasing.
var commonPasswords = map[string]struct{}{
	"password":   {},
	"password1":  {},
	"12345678":   {},
	"123456789":  {},
	"qwerty123":  {},
	"letmein123": {},
	"iloveyou1":  {},
	"admin12345": {},
}

// DefaultPasswordPolicy enforces minimum length, rejects all-numeric and
// common passwords, and rejects passwords too similar to the username or
// email local part.
type DefaultPasswordPolicy struct {
	MinLength int
}

func NewDefaultPasswordPolicy() *DefaultPasswordPolicy {
	return &DefaultPasswordPolicy{MinLength: defaultMinPasswordLength}
}

func (p *DefaultPasswordPolicy) Validate(password string, user UserAttributes) []string {
	var violations []string

	minLength := p.MinLength
	if minLength <= 0 {
		minLength = defaultMinPasswordLength
	}
	if len(password) < minLength {
		violations = append(violations, fmt.Sprintf("This password is too short. It must contain at least %d characters.", minLength))
	}

	if password != "" && isEntirelyNumeric(password) {
		violations = append(violations, "This password is entirely numeric.")
	}

	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		violations = append(violations, "This password is too common.")
	}

	if similarToAttribute(password, user.Username) || similarToAttribute(password, emailLocalPart(user.Email)) {
		violations = append(violations, "The password is too similar to the username or email.")
	}

	return violations
}

func isEntirelyNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func similarToAttribute(password, attribute string) bool {
	if attribute == "" || len(password) < 4 {
		return false
	}
	lowerPassword := strings.ToLower(password)
	lowerAttribute := strings.ToLower(attribute)
	return lowerPassword == lowerAttribute ||
		strings.Contains(lowerPassword, lowerAttribute) ||
		strings.Contains(lowerAttribute, lowerPassword)
}

func emailLocalPart(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
