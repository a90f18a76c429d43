// internal/validator/validator.go
package validator

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"networth-tracker/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

var Validate *validator.Validate

var nonBlank = regexp.MustCompile(`\S`)

func init() {
	Validate = validator.New()

	// Report fields by their JSON names.
	Validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	// Decimals are validated through their string form.
	Validate.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = Validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return nonBlank.MatchString(fl.Field().String())
	})

	_ = Validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil
	})

	_ = Validate.RegisterValidation("categorytype", func(fl validator.FieldLevel) bool {
		_, ok := domain.ParseCategoryType(fl.Field().String())
		return ok
	})

	_ = Validate.RegisterValidation("assettype", func(fl validator.FieldLevel) bool {
		_, ok := domain.ParseAssetType(fl.Field().String())
		return ok
	})

	_ = Validate.RegisterValidation("liabilitytype", func(fl validator.FieldLevel) bool {
		_, ok := domain.ParseLiabilityType(fl.Field().String())
		return ok
	})

	_ = Validate.RegisterValidation("dpositive", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.IsPositive()
	})

	_ = Validate.RegisterValidation("dnonnegative", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && !d.IsNegative()
	})

	// Amounts are stored with two decimal places; anything finer would be rounded away.
	_ = Validate.RegisterValidation("cents", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.Equal(d.Round(2))
	})

	_ = Validate.RegisterValidation("bcryptmax", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxPasswordBytes
	})
}

// ParseDate parses a YYYY-MM-DD string as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}
