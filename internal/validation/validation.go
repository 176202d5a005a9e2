// Package validation registers the form rules of the board's login, signup
// and profile screens on gin's validator engine.
package validation

import (
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/yukikurage/taskboard-web/internal/constants"
)

// Tags usable in binding struct tags once Register has run.
const (
	TagPassword      = "password"
	TagLettersSpaces = "lettersspaces"
	TagAllowedTLD    = "allowedtld"
)

var allowedTLDs = map[string]bool{"com": true, "net": true, "org": true}

var registerOnce sync.Once

// Register installs the custom rules on gin's default validator. It is safe to
// call more than once.
func Register() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = stderrors.New("validation: gin validator engine is not go-playground/validator")
			return
		}
		err = RegisterOn(v)
	})
	return err
}

// RegisterOn installs the custom rules on v.
func RegisterOn(v *validator.Validate) error {
	rules := map[string]validator.Func{
		TagPassword:      validPassword,
		TagLettersSpaces: lettersAndSpaces,
		TagAllowedTLD:    allowedTLD,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

// Password reports whether s is 6 to 30 ASCII letters and digits with at
// least one of each.
func Password(s string) bool {
	if len(s) < constants.MinPasswordLength || len(s) > constants.MaxPasswordLength {
		return false
	}
	var letter, digit bool
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			return false
		}
	}
	return letter && digit
}

// LettersAndSpaces reports whether s contains only letters and spaces.
func LettersAndSpaces(s string) bool {
	for _, r := range s {
		if r != ' ' && !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// AllowedTLD reports whether the email's domain ends in com, net or org.
func AllowedTLD(email string) bool {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return false
	}
	domain := email[at+1:]
	dot := strings.LastIndexByte(domain, '.')
	if dot < 0 {
		return false
	}
	return allowedTLDs[strings.ToLower(domain[dot+1:])]
}

func validPassword(fl validator.FieldLevel) bool    { return Password(fl.Field().String()) }
func lettersAndSpaces(fl validator.FieldLevel) bool { return LettersAndSpaces(fl.Field().String()) }
func allowedTLD(fl validator.FieldLevel) bool       { return AllowedTLD(fl.Field().String()) }

// FieldError is one failed rule, shaped for API error details.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Details converts a binding error into per-field messages. Errors that are
// not validation failures yield nil.
func Details(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return nil
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: jsonName(fe.Field()), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return "Please enter a valid email address"
	case TagAllowedTLD:
		return "Email must end in .com, .net or .org"
	case TagPassword:
		return fmt.Sprintf("Password must be %d-%d letters and digits with at least one of each",
			constants.MinPasswordLength, constants.MaxPasswordLength)
	case TagLettersSpaces:
		return name + " may contain only letters and spaces"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", name)
}

func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
