// Package validation wraps go-playground/validator with the tags used by the
// sales API and turns its errors into *domain.ValidationError.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/commission-dashboard/sales-api/internal/core/domain"
)

// Policy toggles the rules that are deliberately optional.
type Policy struct {
	// EnforceProductLines restricts product_line to domain.ProductLines.
	EnforceProductLines bool
	// EnforceDiscountRange restricts discount_percent to [0, 100].
	EnforceDiscountRange bool
}

var maxDiscount = decimal.NewFromInt(100)

type Validator struct {
	v      *validator.Validate
	policy Policy
}

func New(policy Policy) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	// decimals are validated through their canonical string form
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	val := &Validator{v: v, policy: policy}
	mustRegister(v, "nonneg", isNonNegative)
	mustRegister(v, "digits", hasMaxDigits)
	mustRegister(v, "places", hasMaxPlaces)
	mustRegister(v, "duedate", isDueDate)
	mustRegister(v, "productline", val.isAllowedProductLine)
	mustRegister(v, "discount", val.isAllowedDiscount)
	return val
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

// Validate checks i and returns a *domain.ValidationError, or nil.
func (v *Validator) Validate(i any) error {
	verr := domain.NewValidationError()
	if err := v.Collect(i, verr); err != nil {
		return err
	}
	return verr.OrNil()
}

// Collect adds every rule violation of i to verr. Fields that already carry
// an error in verr (for instance a type error from decoding) are left alone.
func (v *Validator) Collect(i any, verr *domain.ValidationError) error {
	err := v.v.Struct(i)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	for _, fe := range ve {
		key := fieldKey(fe)
		if verr.Has(key) {
			continue
		}
		verr.Add(key, Message(fe))
	}
	return nil
}

// fieldKey drops the root struct name from the namespace:
// "saleDraft.payment_dates[0].paymentDate" -> "payment_dates[0].paymentDate".
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// Message renders a FieldError the way clients of the API expect it.
func Message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Ensure this field has no more than %s elements.", fe.Param())
		}
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "gte", "min":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "lte":
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "nonneg":
		return "Ensure this value is greater than or equal to 0."
	case "digits":
		return fmt.Sprintf("Ensure that there are no more than %s digits in total.", fe.Param())
	case "places":
		return fmt.Sprintf("Ensure that there are no more than %s decimal places.", fe.Param())
	case "duedate":
		return "Date has wrong format. Use one of these formats instead: DD/MM/YYYY, YYYY-MM-DD."
	case "productline":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
	case "discount":
		return "Ensure this value is between 0 and 100."
	default:
		return fmt.Sprintf("Failed validation (%s).", fe.Tag())
	}
}

func decimalOf(fl validator.FieldLevel) (decimal.Decimal, bool) {
	s := fl.Field().String()
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	return d, err == nil
}

func isNonNegative(fl validator.FieldLevel) bool {
	d, ok := decimalOf(fl)
	return ok && !d.IsNegative()
}

func hasMaxDigits(fl validator.FieldLevel) bool {
	d, ok := decimalOf(fl)
	if !ok {
		return false
	}
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	total, _ := Precision(d)
	return total <= limit
}

func hasMaxPlaces(fl validator.FieldLevel) bool {
	d, ok := decimalOf(fl)
	if !ok {
		return false
	}
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	_, places := Precision(d)
	return places <= limit
}

func isDueDate(fl validator.FieldLevel) bool {
	_, err := domain.ParseDueDate(fl.Field().String())
	return err == nil
}

func (v *Validator) isAllowedProductLine(fl validator.FieldLevel) bool {
	if !v.policy.EnforceProductLines {
		return true
	}
	return domain.IsKnownProductLine(fl.Field().String())
}

func (v *Validator) isAllowedDiscount(fl validator.FieldLevel) bool {
	if !v.policy.EnforceDiscountRange {
		return true
	}
	d, ok := decimalOf(fl)
	return ok && !d.IsNegative() && d.LessThanOrEqual(maxDiscount)
}

// Precision returns the total number of digits and the number of decimal
// places of d as written, so "1000.00" is (6, 2) and "0.5" is (1, 1).
func Precision(d decimal.Decimal) (total, places int) {
	coef := d.Coefficient()
	digits := len(coef.Abs(coef).String())
	exp := int(d.Exponent())

	if exp >= 0 {
		if coef.Sign() == 0 {
			return 1, 0
		}
		return digits + exp, 0
	}

	places = -exp
	whole := digits - places
	if whole < 0 {
		whole = 0
	}
	return whole + places, places
}
