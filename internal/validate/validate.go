// Package validate checks request records against their field rules and
// reports every violated rule, not just the first.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"bookshelf/internal/model"
)

type Violation struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Rule))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

const passwordSpecials = "@$!%*#?&"

var nameRe = regexp.MustCompile(`[\w\-]`)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "username", func(fl validator.FieldLevel) bool {
		return nameRe.MatchString(fl.Field().String())
	})
	mustRegister(v, "password", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	mustRegister(v, "genre", func(fl validator.FieldLevel) bool {
		return slices.Contains(model.Genres, fl.Field().String())
	})

	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s rule: %v", tag, err))
	}
}

// Struct returns nil or an *Error listing every failed rule.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &Error{Violations: make([]Violation, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Violations = append(out.Violations, Violation{
			Field: fe.Field(),
			Rule:  fe.Tag(),
			Param: fe.Param(),
		})
	}
	return out
}

// StrongPassword requires at least eight characters drawn from letters,
// digits and @$!%*#?&, with at least one of each class.
func StrongPassword(s string) bool {
	if len(s) < 8 {
		return false
	}
	var letter, digit, special bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		default:
			return false
		}
	}
	return letter && digit && special
}
