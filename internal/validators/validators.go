package validators

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	nationalIDPattern = regexp.MustCompile(`^\d{11}$`)
	monthPattern      = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
	slugPattern       = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// IsNationalID reports whether id is an 11-digit national identity number.
func IsNationalID(id string) bool {
	return nationalIDPattern.MatchString(id)
}

// IsMonth reports whether s is a calendar month in YYYY-MM form.
func IsMonth(s string) bool {
	return monthPattern.MatchString(s)
}

func NormalizeSlug(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Register installs the custom binding tags on gin's validator engine:
// nationalid, month and slug.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	if err := v.RegisterValidation("nationalid", func(fl validator.FieldLevel) bool {
		return IsNationalID(fl.Field().String())
	}); err != nil {
		return err
	}
	if err := v.RegisterValidation("month", func(fl validator.FieldLevel) bool {
		return IsMonth(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return IsSlug(NormalizeSlug(fl.Field().String()))
	})
}
