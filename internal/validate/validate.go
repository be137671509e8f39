package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/nimasrn/review-runner/internal/apperr"
	"github.com/nimasrn/review-runner/internal/model"
)

var (
	ukPhoneRe = regexp.MustCompile(`^(\+44\s?7\d{3}|\(?07\d{3}\)?)\s?\d{3}\s?\d{3}$`)

	once     sync.Once
	instance *validator.Validate
)

// FieldError is one entry of a validation error's details.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("ukphone", func(fl validator.FieldLevel) bool {
			return IsValidUKPhone(fl.Field().String())
		})
		_ = v.RegisterValidation("rremail", func(fl validator.FieldLevel) bool {
			return IsValidEmail(fl.Field().String())
		})
		_ = v.RegisterValidation("channel", func(fl validator.FieldLevel) bool {
			return model.Channel(fl.Field().String()).Valid()
		})
		instance = v
	})
	return instance
}

// Struct validates s and returns a Validation error listing every failed field.
func Struct(s any) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("invalid request", nil)
	}
	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
	}
	return apperr.Validation("request validation failed", details)
}

// IsValidEmail rejects whitespace, a missing local part or a missing domain.
func IsValidEmail(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	return get().Var(s, "email") == nil
}

// IsValidUKPhone accepts UK mobile numbers in +44 or 07 form.
func IsValidUKPhone(s string) bool {
	return ukPhoneRe.MatchString(strings.TrimSpace(s))
}

// NormalizeUKPhone converts a valid UK mobile number to +447XXXXXXXXX.
func NormalizeUKPhone(s string) (string, bool) {
	if !IsValidUKPhone(s) {
		return "", false
	}
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case strings.HasPrefix(digits, "44"):
		return "+" + digits, true
	case strings.HasPrefix(digits, "0"):
		return "+44" + digits[1:], true
	}
	return "", false
}

// Channel parses a channel value, rejecting anything outside the enum.
func Channel(s string) (model.Channel, error) {
	ch := model.Channel(strings.ToUpper(strings.TrimSpace(s)))
	if !ch.Valid() {
		return "", apperr.Validation("invalid channel", []FieldError{{Field: "channel", Rule: "channel"}})
	}
	return ch, nil
}
