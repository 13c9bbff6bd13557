package whatsthat

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
)

var validate *validator.Validate
var uniTrans *ut.UniversalTranslator

func init() {
	validate = validator.New()
	en := en.New()
	uniTrans = ut.New(en, en)
	enTrans, _ := uniTrans.GetTranslator("en")

	// lowercase first letter of the field
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return strings.ToLower(field.Name)
	})

	validate.RegisterValidation("logsink", func(fl validator.FieldLevel) bool {
		sink := fl.Field().String()
		switch {
		case sink == "stderr", sink == "stdout":
			return true
		case strings.HasPrefix(sink, "file:"):
			return len(sink) > len("file:")
		}
		return false
	})

	translations := map[string]string{
		"required":      "{0} is a required field",
		"url":           "{0} must be a valid URL",
		"oneof":         "{0} must be one of: {1}",
		"min":           "{0} must be at least {1}",
		"hostname_port": "{0} must be a host:port address",
		"logsink":       "{0} must be stderr, stdout or file:<path>",
	}
	for tag, text := range translations {
		validate.RegisterTranslation(tag, enTrans, func(ut ut.Translator) error {
			return ut.Add(tag, text, true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, fe.Field(), fe.Param())
			return t
		})
	}
}
