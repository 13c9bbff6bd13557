package core

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate
var trans ut.Translator

// passwordSpecials are the symbols of which a password needs at least one.
const passwordSpecials = "#?!@$%^&*-"

func init() {
	validate = validator.New()
	en := en.New()
	uni := ut.New(en, en)
	trans, _ = uni.GetTranslator("en")

	// use the json name with spaces so messages read naturally: "first name is a required field"
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			name = strings.ToLower(field.Name)
		}
		return strings.ReplaceAll(name, "_", " ")
	})

	validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})
	validate.RegisterValidation("searchterm", func(fl validator.FieldLevel) bool {
		return IsSearchTerm(fl.Field().String())
	})

	register := func(tag, text string) {
		validate.RegisterTranslation(tag, trans, func(ut ut.Translator) error {
			return ut.Add(tag, text, true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, fe.Field(), fe.Param())
			return t
		})
	}
	register("required", "{0} is a required field")
	register("email", "Must enter valid email")
	register("alpha", "{0} must only contain letters")
	register("min", "{0} must be at least {1} characters long")
	register("max", "{0} must be at most {1} characters long")
	register("password", "Password isn't strong enough (One upper, one lower, one special, one number, 8 to 40 characters long)")
	register("searchterm", "Please use only letters, spaces, and hyphens in the search term.")
}

// IsStrongPassword reports whether s has an upper case letter, a lower case letter,
// a digit and one of #?!@$%^&*- and is 8 to 40 characters long.
func IsStrongPassword(s string) bool {
	if n := len([]rune(s)); n < 8 || n > 40 {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return upper && lower && digit && special
}

// IsSearchTerm reports whether s is made of letters, spaces and hyphens only.
func IsSearchTerm(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(unicode.IsLetter(r) || r == ' ' || r == '-') {
			return false
		}
	}
	return true
}

// Validate checks v against its validate tags and returns an ErrValidation kind error
// with the message of the first failing field.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return NewValidationError("Invalid input.").WithCause(err)
	}
	return NewValidationError(verrs[0].Translate(trans)).WithCause(err)
}

// Validate trims the search term and checks it.
func (q *SearchQuery) Validate() error {
	q.Term = strings.TrimSpace(q.Term)
	if q.Term == "" {
		return NewValidationError("Please enter something before searching.")
	}
	if err := Validate(q); err != nil {
		return err
	}
	return q.Page.Validate()
}

// Validate rejects an update with no fields and checks the fields that are set.
func (p ProfileUpdate) Validate() error {
	if p.Empty() {
		return NewValidationError("Nothing to update.")
	}
	return Validate(p)
}

func (c Credentials) Validate() error {
	if c.Email == "" || c.Password == "" {
		return NewValidationError("Must enter email and password")
	}
	return Validate(c)
}

func (r Registration) Validate() error {
	if r.FirstName == "" || r.LastName == "" {
		return NewValidationError("Please enter a first and last name")
	}
	return Validate(r)
}
