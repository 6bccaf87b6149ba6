// Package validation holds the shared validator instance and the census
// specific rules registered on it.
package validation

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ougirez/cancensus/internal/domain"
)

var (
	datasetRe = regexp.MustCompile(`^[A-Z]{2}\d{2}$`)
	vectorRe  = regexp.MustCompile(`^v_[A-Za-z0-9]+_[A-Za-z0-9_.]+$`)
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Engine returns the process-wide validator with the custom rules
// "dataset", "level", "region_level" and "vector" registered.
func Engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		mustRegister(v, "dataset", func(fl validator.FieldLevel) bool {
			return datasetRe.MatchString(fl.Field().String())
		})
		mustRegister(v, "level", func(fl validator.FieldLevel) bool {
			l, ok := domain.ParseLevel(fl.Field().String())
			return ok && string(l) == fl.Field().String()
		})
		mustRegister(v, "region_level", func(fl validator.FieldLevel) bool {
			return domain.Level(fl.Field().String()).IsRegionLevel()
		})
		mustRegister(v, "vector", func(fl validator.FieldLevel) bool {
			return vectorRe.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func Struct(s any) error {
	return Engine().Struct(s)
}

func IsDataset(s string) bool { return datasetRe.MatchString(s) }
func IsVector(s string) bool  { return vectorRe.MatchString(s) }
