// Package waitlist holds the acceptance rules for a waiting-list entry.
// Validate is pure and holds no state between calls.
package waitlist

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Field names a form input. Values match the JSON keys used by the form.
type Field string

const (
	FieldName         Field = "name"
	FieldEmail        Field = "email"
	FieldAgreeToTerms Field = "agreeToTerms"
)

const (
	NameMinLength = 2
	NameMaxLength = 50
)

// Error messages, one per rule.
const (
	MsgNameRequired  = "Name is required"
	MsgNameTooShort  = "Name must be at least 2 characters"
	MsgNameTooLong   = "Name must be at most 50 characters"
	MsgEmailRequired = "Email is required"
	MsgEmailInvalid  = "Invalid email format"
	MsgTermsRequired = "You must agree to the Terms & Conditions"
)

// Candidate is raw form input, before validation.
type Candidate struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	AgreeToTerms bool   `json:"agreeToTerms"`
}

// Entry is a Candidate that satisfied every rule. Only Validate produces one.
type Entry struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	AgreeToTerms bool   `json:"agreeToTerms"`
}

// FieldErrors maps a rejected field to the message of its first failing rule.
type FieldErrors map[Field]string

// Error implements error so a rejection can be returned as one.
func (fe FieldErrors) Error() string {
	fields := fe.Fields()
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, string(f)+": "+fe[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the rejected fields in form order.
func (fe FieldErrors) Fields() []Field {
	fields := make([]Field, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool {
		return fieldOrder(fields[i]) < fieldOrder(fields[j])
	})
	return fields
}

// Get returns the message for f, or "" when f passed.
func (fe FieldErrors) Get(f Field) string {
	if fe == nil {
		return ""
	}
	return fe[f]
}

// AsMap converts the errors to plain string keys, e.g. for JSON details.
func (fe FieldErrors) AsMap() map[string]any {
	out := make(map[string]any, len(fe))
	for f, msg := range fe {
		out[string(f)] = msg
	}
	return out
}

func fieldOrder(f Field) int {
	switch f {
	case FieldName:
		return 0
	case FieldEmail:
		return 1
	case FieldAgreeToTerms:
		return 2
	default:
		return 3
	}
}

// rule is one predicate+message pair. A field's rules run in slice order and
// stop at the first failure.
type rule struct {
	ok  func(Candidate) bool
	msg string
}

type fieldRules struct {
	field Field
	rules []rule
}

var emailValidator = validator.New()

// schema is the ordered rule table: emptiness, then length, then format.
var schema = []fieldRules{
	{field: FieldName, rules: []rule{
		{ok: func(c Candidate) bool { return c.Name != "" }, msg: MsgNameRequired},
		{ok: func(c Candidate) bool { return charCount(c.Name) >= NameMinLength }, msg: MsgNameTooShort},
		{ok: func(c Candidate) bool { return charCount(c.Name) <= NameMaxLength }, msg: MsgNameTooLong},
	}},
	{field: FieldEmail, rules: []rule{
		{ok: func(c Candidate) bool { return c.Email != "" }, msg: MsgEmailRequired},
		{ok: func(c Candidate) bool { return IsEmail(c.Email) }, msg: MsgEmailInvalid},
	}},
	{field: FieldAgreeToTerms, rules: []rule{
		{ok: func(c Candidate) bool { return c.AgreeToTerms }, msg: MsgTermsRequired},
	}},
}

// Validate checks c against every rule. It returns the accepted Entry and nil
// errors, or a zero Entry and one message per rejected field.
func Validate(c Candidate) (Entry, FieldErrors) {
	var errs FieldErrors
	for _, fr := range schema {
		for _, r := range fr.rules {
			if r.ok(c) {
				continue
			}
			if errs == nil {
				errs = make(FieldErrors, len(schema))
			}
			errs[fr.field] = r.msg
			break
		}
	}
	if errs != nil {
		return Entry{}, errs
	}
	return Entry(c), nil
}

// ValidateContact runs only the name and email rules. The collection endpoint
// uses it: terms agreement never travels over the wire.
func ValidateContact(name, email string) FieldErrors {
	_, errs := Validate(Candidate{Name: name, Email: email, AgreeToTerms: true})
	return errs
}

// IsEmail reports whether s matches the email address grammar.
func IsEmail(s string) bool {
	return emailValidator.Var(s, "email") == nil
}

// Length is measured on the raw value, untrimmed.
func charCount(s string) int {
	return utf8.RuneCountInString(s)
}
