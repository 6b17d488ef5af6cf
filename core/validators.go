package core

import (
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// custom validation tags & texts
	notBlankTag  = "notblank"
	notBlankText = "{0} cannot be blank"

	personNameTag   = "personname"
	personNameText  = "Name must contain only letters"
	personNameRegex = regexp.MustCompile(`^[A-Za-z\s]+$`)

	nonNegTag  = "nonneg"
	nonNegText = "Age cannot be negative"

	emailAddrTag   = "emailaddr"
	emailAddrText  = "Invalid email format"
	emailAddrRegex = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

	requiredTag  = "required"
	requiredText = "{0} is required"
)

// Instantiate the validator for use.
func init() {
	Validate = validator.New()

	// Register the english error messages for validation errors.
	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	InitValidators(Validate, Translator)
}

// InitValidators registers translations, tag names and the custom validators on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	RegisterCustomTranslation(validate, translator, notBlankTag, notBlankText)

	_ = validate.RegisterValidation(personNameTag, personNameValidation)
	RegisterCustomTranslation(validate, translator, personNameTag, personNameText)

	_ = validate.RegisterValidation(nonNegTag, nonNegValidation)
	RegisterCustomTranslation(validate, translator, nonNegTag, nonNegText)

	_ = validate.RegisterValidation(emailAddrTag, emailAddrValidation)
	RegisterCustomTranslation(validate, translator, emailAddrTag, emailAddrText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// ValidateStruct validates s against its `validate` tags.
// Failures are returned as a *ValidationError whose Err is the first failing field, in declaration order.
func ValidateStruct(s interface{}) error {
	if err := Validate.Struct(s); err != nil {
		vErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return errors.Wrap(err, "validating struct")
		}
		return newValidationError("", vErrs)
	}
	return nil
}

// ValidateVar validates a single value named field against tag.
func ValidateVar(field string, v interface{}, tag string) error {
	if err := Validate.Var(v, tag); err != nil {
		vErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return errors.Wrap(err, "validating "+field)
		}
		return newValidationError(field, vErrs)
	}
	return nil
}

func newValidationError(field string, vErrs validator.ValidationErrors) error {
	flds := make([]FieldError, 0, len(vErrs))
	for _, fe := range vErrs {
		name, msg := fe.Field(), fe.Translate(Translator)
		if name == "" {
			name = field
			if s, err := Translator.T(fe.Tag(), field); err == nil {
				msg = s
			}
		}
		flds = append(flds, FieldError{Field: name, Error: msg})
	}
	return NewValidationError(errors.New(flds[0].Error), flds...)
}

// Custom Global Validators

// notBlankValidation rejects empty and whitespace-only strings.
func notBlankValidation(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// personNameValidation only allows letters and whitespace, with at least one letter.
func personNameValidation(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	return personNameRegex.MatchString(name) && strings.IndexFunc(name, unicode.IsLetter) >= 0
}

func nonNegValidation(fl validator.FieldLevel) bool {
	fld := fl.Field()
	switch fld.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fld.Int() >= 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	case reflect.Float32, reflect.Float64:
		return fld.Float() >= 0
	}
	return false
}

func emailAddrValidation(fl validator.FieldLevel) bool {
	return emailAddrRegex.MatchString(fl.Field().String())
}
