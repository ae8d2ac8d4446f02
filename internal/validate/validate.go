package validate

import (
	"reflect"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var phonePattern = regexp.MustCompile(`^[0-9+\-\s]+$`)

func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(DecimalValue, decimal.Decimal{})
	_ = v.RegisterValidation("price", ValidatePrice)
	_ = v.RegisterValidation("phone", ValidatePhone)
	return v
}

// DecimalValue lets validator see decimal.Decimal fields as their string form.
func DecimalValue(v reflect.Value) interface{} {
	d, ok := v.Interface().(decimal.Decimal)
	if !ok {
		return nil
	}
	return d.String()
}

func ValidatePrice(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return false
	}
	return !d.IsNegative()
}

func ValidatePhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(fl.Field().String())
}
